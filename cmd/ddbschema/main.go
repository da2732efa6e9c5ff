// Command ddbschema parses, formats and stores items described by a YAML
// schema definition.
package main

func main() {
	Execute()
}
