package main

import "github.com/cpulvermacher/claudechat/cmd"

func main() {
	cmd.Execute()
}
