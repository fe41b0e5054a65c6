package builtin

// passthroughTransform is a named no-op: it returns its input unchanged. It
// is registered under the explicit type name "raw" (not by extension) so a
// file-scope or glob-scope config can force `transform.enabled=true` with
// `transform.type_name="raw"` and still get the TRANSFORMED flag and a
// renamed logical path, without any byte change.
type passthroughTransform struct{}

// NewPassthrough constructs the "raw" identity transform.
func NewPassthrough() *passthroughTransform {
	return &passthroughTransform{}
}

func (t *passthroughTransform) TypeName() string     { return "raw" }
func (t *passthroughTransform) SourceExts() []string { return nil }
func (t *passthroughTransform) TargetExt() string    { return "raw" }

func (t *passthroughTransform) DefaultOptions() any { return struct{}{} }

func (t *passthroughTransform) DeserializeOptions(raw map[string]any) (any, error) {
	return struct{}{}, nil
}

func (t *passthroughTransform) Run(data []byte, sourceExt string, opts any) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
