// Copyright (c) 2025 tgram-dev

package main

func main() {
	Execute()
}
