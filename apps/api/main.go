package main

import (
	"flag"
	"log"
	_ "net/http/pprof"

	dig_container "github.com/trezcool/classdrive/apps/api/di/dig"
)

func main() {
	graph := flag.Bool("graph", false, "print the dependency graph in DOT format and exit")
	flag.Parse()

	if *graph {
		must(dig_container.Visualize(dig_container.New()))
		return
	}
	startWithDig()
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
