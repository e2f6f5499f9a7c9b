package main

import "github.com/llehouerou/openspot/cmd"

func main() {
	cmd.Execute()
}
