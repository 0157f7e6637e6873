package ports

import "github.com/llb-tools/llbreduce/internal/domain"

// ProfileSink persists the cumulative profile. Write is called after every
// frame and replaces the previous output.
type ProfileSink interface {
	Write(p *domain.Profile) error
}
