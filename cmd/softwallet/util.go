package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/vulpemventures/softwallet/internal/core/domain"
)

var colorRed = string("\033[31m")

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %s", err)
	}
	fmt.Println(string(buf))
	return nil
}

func printErr(err error) {
	msg := capitalize(err.Error())
	if kind := domain.Classify(err); kind != domain.ErrKindUnknown {
		msg = fmt.Sprintf("%s (%s)", msg, kind)
	}
	fmt.Fprintln(os.Stderr, fmt.Sprintf("%s%s", colorRed, msg))
}

func readPayload(arg string) ([]byte, error) {
	if strings.HasPrefix(arg, "@") {
		return os.ReadFile(strings.TrimPrefix(arg, "@"))
	}
	return []byte(arg), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	ss := strings.ToUpper(s[0:1])
	ss += s[1:]
	return ss
}

func formatVersion() string {
	return fmt.Sprintf(
		"\nVersion: %s\nCommit: %s\nDate: %s", version, commit, date,
	)
}
