package main

import (
	"fmt"
	"log"
	"os"

	"github.com/tinywasm/dao"
)

func main() {
	g := dao.NewDaoc()
	g.SetLog(func(messages ...any) {
		fmt.Fprintln(os.Stderr, messages...)
	})
	if err := g.Run(); err != nil {
		log.Fatalf("daoc: %v", err)
	}
}
