package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dreamware/maptree/internal/codec"
)

type colorFunc func(string) string

type printFunc func(w io.Writer, doc codec.Value, key colorFunc) error

func plain(s string) string { return s }

func printDocument(w io.Writer, data []byte, print printFunc, key colorFunc) error {
	doc, err := codec.Parse(data)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err := print(bw, doc, key); err != nil {
		return err
	}
	return bw.Flush()
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func printPaths(w io.Writer, doc codec.Value, _ colorFunc) error {
	return printLines(w, codec.FlattenPaths(doc))
}

func printTreePaths(w io.Writer, doc codec.Value, key colorFunc) error {
	for _, p := range codec.FlattenTree(doc) {
		if _, err := fmt.Fprintln(w, key(p)); err != nil {
			return err
		}
	}
	return nil
}

// printMap writes "path<TAB>value" in document order
func printMap(w io.Writer, doc codec.Value, _ colorFunc) error {
	values := codec.MapPaths(doc)
	seen := make(map[string]bool, len(values))
	for _, p := range codec.FlattenPaths(doc) {
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, err := fmt.Fprintf(w, "%s\t%s\n", p, values[p]); err != nil {
			return err
		}
	}
	return nil
}

func printGroups(w io.Writer, doc codec.Value, key colorFunc) error {
	groups := codec.MapPathTree(doc)
	for _, k := range groups.Keys() {
		p, _ := groups.Get(k)
		if _, err := fmt.Fprintf(w, "%s (%s)\n", key(k), p.Kind()); err != nil {
			return err
		}
		switch p.Kind() {
		case codec.FieldMap:
			fields := p.Fields()
			for _, name := range p.FieldNames() {
				if _, err := fmt.Fprintf(w, "  %s = %s\n", name, fields[name]); err != nil {
					return err
				}
			}
		case codec.ScalarList:
			for i, item := range p.Items() {
				if _, err := fmt.Fprintf(w, "  [%d] %s\n", i, item); err != nil {
					return err
				}
			}
		}
	}
	if n := groups.Conflicts(); n > 0 {
		_, err := fmt.Fprintf(w, "# %d leaves dropped on kind conflicts\n", n)
		return err
	}
	return nil
}
