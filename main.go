package main

import "github.com/stevehiehn/mlprov/cmd"

func main() {
	cmd.Execute()
}
