package materialbin

// Sniff decodes data under every registered layout in priority order and
// returns the first that succeeds along with its version.
//
// Several layouts share a format number, so a buffer that uses none of the
// constructs distinguishing them is reported as the newest such layout.
// When no layout accepts the buffer the error is a *NoMatchError holding
// every attempt.
func Sniff(data []byte) (*Material, Version, error) {
	attempts := make([]*DecodeError, 0, len(registry))
	for _, e := range registry {
		m, err := Decode(data, e.version)
		if err == nil {
			return m, e.version, nil
		}
		attempts = append(attempts, err.(*DecodeError))
	}
	return nil, 0, &NoMatchError{Attempts: attempts}
}

// SniffVersion is Sniff without the decoded material.
func SniffVersion(data []byte) (Version, error) {
	_, v, err := Sniff(data)
	return v, err
}
