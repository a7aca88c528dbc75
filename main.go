/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/mautops/appraisal-gin/cmd"

func main() {
	cmd.Execute()
}
