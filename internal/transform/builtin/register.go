package builtin

import "github.com/smap/smap/internal/transform"

// Register adds every built-in transform to reg. Called once when a
// compiler is constructed with no custom transform set.
func Register(reg *transform.Registry) error {
	if err := reg.Register(NewText()); err != nil {
		return err
	}
	if err := reg.Register(NewPassthrough()); err != nil {
		return err
	}
	return nil
}
