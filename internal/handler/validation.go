package handler

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MaxChannelNameLength bounds channel names in runes
const MaxChannelNameLength = 80

// RegisterValidators installs the custom binding rules on gin's validator
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("channelname", validateChannelName)
}

// validateChannelName accepts printable names without the reserved DM prefix
func validateChannelName(fl validator.FieldLevel) bool {
	return ValidChannelName(fl.Field().String())
}

// ValidChannelName reports whether name can be used for a regular channel
func ValidChannelName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxChannelNameLength {
		return false
	}
	if strings.HasPrefix(name, "dm-") {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
