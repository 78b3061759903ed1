package main

import "github.com/lecram2025/twitter-archive-combiner/cmd"

func main() {
	cmd.Execute()
}
