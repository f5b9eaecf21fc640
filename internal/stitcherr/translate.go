package stitcherr

import (
	"fmt"
	"strings"
)

// messageTemplates holds the one host-facing template per kind.
var messageTemplates = map[Kind]string{
	KindBoundary:         "Host boundary error: %s",
	KindIO:               "IO error: %s",
	KindConfig:           "Configuration error: %s",
	KindFormat:           "Output format error: %s",
	KindContractMismatch: "Internal error: mismatch in file data (%s)",
	KindDecode:           "Image decode error: %s",
	KindEncode:           "Image encode error: %s",
	KindUnclassified:     "%s",
}

// Translate converts err into the string returned across the boundary.
// A nil error yields the empty success marker. The result is always valid
// UTF-8, since the host rejects anything else.
func Translate(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if msg == "" {
		msg = "unknown error"
	}
	msg = strings.ToValidUTF8(msg, "\uFFFD")
	return fmt.Sprintf(messageTemplates[KindOf(err)], msg)
}
