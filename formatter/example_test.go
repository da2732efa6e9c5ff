package formatter_test

import (
	"fmt"

	"github.com/jacentio/ddbschema/formatter"
	"github.com/jacentio/ddbschema/schema"
)

func ExampleFormat() {
	s := schema.MustNew(
		schema.Attr("id", schema.String().Key().SavedAs("pk").Transform(schema.Prefix("USER"))),
		schema.Attr("name", schema.String()),
		schema.Attr("password", schema.String().Hidden()),
	)

	stored := map[string]any{"pk": "USER#1", "name": "Ada", "password": "hunter2"}

	item, err := formatter.Format(s, stored)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(item)

	item, err = formatter.Format(s, stored, formatter.Attributes("name"))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(item)
	// Output:
	// map[id:1 name:Ada]
	// map[name:Ada]
}
