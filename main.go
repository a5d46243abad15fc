package main

import "dicom-archive/cmd"

func main() {
	cmd.Execute()
}
