//go:build !linux && !windows && !darwin

package deeplink

func register(Handler) error {
	return ErrUnsupported
}

func registered(Handler) (bool, error) {
	return false, ErrUnsupported
}
