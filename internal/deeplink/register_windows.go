//go:build windows

package deeplink

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows/registry"
)

func classesKey(scheme string) string {
	return `Software\Classes\` + scheme
}

func openCommand(exe string) string {
	return `"` + exe + `" "%1"`
}

func register(h Handler) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, classesKey(h.Scheme), registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create scheme key: %w", err)
	}
	defer k.Close()
	if err := k.SetStringValue("", "URL:"+h.AppName); err != nil {
		return err
	}
	if err := k.SetStringValue("URL Protocol", ""); err != nil {
		return err
	}

	cmd, _, err := registry.CreateKey(registry.CURRENT_USER, classesKey(h.Scheme)+`\shell\open\command`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create open command key: %w", err)
	}
	defer cmd.Close()
	if err := cmd.SetStringValue("", openCommand(h.Exe)); err != nil {
		return err
	}

	log.Info().Str("scheme", h.Scheme).Msg("deep link scheme registered")
	return nil
}

func registered(h Handler) (bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, classesKey(h.Scheme)+`\shell\open\command`, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer k.Close()

	current, _, err := k.GetStringValue("")
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return current == openCommand(h.Exe), nil
}
