// Package strategy holds the three ways maptree lays a JSON document out
// in the backend.
//
//	Document   key                -> whole document, addressed by "$.path"
//	FlatHash   key                -> hash { leaf path: text }
//	Grouped    key:<group key>    -> hash { field: text } per object group
//	           key:<array path>   -> list [ text ... ] per scalar array
//
// For the document {"a":{"b":1,"c":null},"d":[1,2,3]} written under "r",
// Grouped produces the hash "r:a" = {b: "1", c: "__null__"} and the list
// "r:d" = ["1", "2", "3"].
//
// Every strategy returns the locations it produced. The service passes
// them, with the strategy's Probe, to the auditor.
package strategy
