package main

import "web-voice-assistant/internal/bootstrap"

func main() {
	bootstrap.NewApp().Run()
}
