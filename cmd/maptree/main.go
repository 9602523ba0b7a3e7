// Command maptree prints what the maptree builders produce for a JSON
// document, without touching any storage.
//
//	maptree paths [file|-]        leaf paths, one per line
//	maptree tree-paths [file|-]   object and scalar array paths, plus root
//	maptree map [file|-]          leaf path and stored value
//	maptree groups [file|-]       group keys with their field map or list
//
// With no file, or with "-", the document is read from stdin. Group keys
// are colored when writing to a terminal or when -color is given.
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
