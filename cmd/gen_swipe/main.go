package main

import (
	magstripe "github.com/doismellburning/magstripe/src"
)

func main() {
	magstripe.GenSwipeMain()
}
