// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Command stun-decode prints a base64 encoded STUN message.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pion/icelite/stun"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", "stun-decode")
		fmt.Fprintln(os.Stderr, "stun-decode AAEACCESpEIAAQIDBAUGBwgJCgsAJAAEbn//AA==")
		fmt.Fprintln(os.Stderr, "First argument must be a base64.StdEncoding-encoded message")
		flag.PrintDefaults()
	}
	flag.Parse()
	data, err := base64.StdEncoding.DecodeString(flag.Arg(0))
	if err != nil {
		log.Fatalln("Unable to decode base64 value:", err)
	}
	m, err := stun.Decode(data)
	if err != nil {
		log.Fatalln("Unable to decode message:", err)
	}
	fmt.Println(m)
	for _, a := range m.Attributes {
		fmt.Printf("  %s: %d bytes\n", a.Type, a.Length)
	}
}
