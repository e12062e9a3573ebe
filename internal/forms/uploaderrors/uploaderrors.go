// Package uploaderrors maps internal upload failure keys (virus scan, wrong
// file type) onto the small fixed vocabulary of user-facing messages.
package uploaderrors

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var rawMessages []byte

var messages map[string]string

func init() {
	if err := yaml.Unmarshal(rawMessages, &messages); err != nil {
		panic("uploaderrors: bad embedded vocabulary: " + err.Error())
	}
	if _, ok := messages["default"]; !ok {
		panic("uploaderrors: embedded vocabulary missing default message")
	}
}

// Message returns the user-facing text for an upload error key, falling back
// to the generic message for anything unrecognized.
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return messages["default"]
}
