// Package naming sanitizes user-supplied names into container-registry
// -safe identifiers and parses image references, preserving "." and "-"
// per the container-name grammar instead of collapsing them.
package naming

import (
	"regexp"
	"strings"
)

var disallowed = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
var leadingNonAlnum = regexp.MustCompile(`^[^A-Za-z0-9]+`)

// Sanitize replaces runs of disallowed characters with "_", strips
// leading non-alphanumerics and trailing underscores, and falls back to
// "unnamed" for empty input. The result always satisfies
// ^[A-Za-z0-9][A-Za-z0-9_.-]*$.
func Sanitize(name string) string {
	s := disallowed.ReplaceAllString(name, "_")
	s = leadingNonAlnum.ReplaceAllString(s, "")
	s = strings.TrimRight(s, "_")
	if s == "" {
		return "unnamed"
	}
	return s
}

// ContainerName composes the container name for a service within a stack.
func ContainerName(stack, service string) string {
	return Sanitize(stack) + "_" + Sanitize(service)
}

// NetworkName composes the default network name for a stack.
func NetworkName(stack string) string {
	return Sanitize(stack) + "_default"
}

// VolumeName composes a named-volume identifier for a stack.
func VolumeName(stack, volume string) string {
	return Sanitize(stack) + "_" + Sanitize(volume)
}

// ImageRef is a parsed "host[:port]/path:tag" or "host[:port]/path@digest"
// reference. Tag is empty when the original reference had none, so Format
// round-trips the original text exactly (invariant I2).
type ImageRef struct {
	Repository string // everything before the tag/digest separator
	Tag        string // tag, or "" if the reference had none
	Digest     string // "sha256:..." if the reference used @digest form
}

// ParseImageRef splits on the last ':' in the reference; if the text
// after that colon contains '/' it belongs to the path (a registry port),
// so there is no tag. Digest references ("@sha256:...") are preserved
// verbatim as the Digest field rather than split further.
func ParseImageRef(ref string) ImageRef {
	if at := strings.LastIndex(ref, "@"); at != -1 {
		return ImageRef{
			Repository: ref[:at],
			Digest:     ref[at+1:],
		}
	}

	lastColon := strings.LastIndex(ref, ":")
	if lastColon == -1 {
		return ImageRef{Repository: ref}
	}

	afterColon := ref[lastColon+1:]
	if strings.Contains(afterColon, "/") {
		// The colon belongs to a "host:port" segment, not a tag.
		return ImageRef{Repository: ref}
	}

	return ImageRef{Repository: ref[:lastColon], Tag: afterColon}
}

// Format is the left inverse of ParseImageRef for references without a
// digest: Format(ParseImageRef(r)) == r.
func (r ImageRef) Format() string {
	if r.Digest != "" {
		return r.Repository + "@" + r.Digest
	}
	if r.Tag == "" {
		return r.Repository
	}
	return r.Repository + ":" + r.Tag
}

// String renders the fully-qualified reference with an implicit "latest"
// tag applied, for use in pull/create calls where Docker requires one.
func (r ImageRef) String() string {
	if r.Digest != "" {
		return r.Repository + "@" + r.Digest
	}
	tag := r.Tag
	if tag == "" {
		tag = "latest"
	}
	return r.Repository + ":" + tag
}
