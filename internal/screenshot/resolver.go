// Package screenshot locates screenshots of failed tests on disk and turns
// them into upload payloads.
//
// The screenshot folder is accessed through an fs.FS rooted at the folder, so
// resolution and decoding can be exercised against in-memory trees in tests.
package screenshot

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/domain"
	"github.com/mrz1836/shotpub/internal/errors"
)

// Location is a resolved screenshot.
type Location struct {
	// Name is the slash-separated path relative to the screenshot folder.
	Name string
	// Path is the on-disk path, for logs and reports.
	Path string
}

// Resolver maps failed test cases to screenshot files.
type Resolver struct {
	fsys   fs.FS
	root   string
	osType domain.OSType
}

// NewResolver creates a Resolver over the screenshot folder on disk.
func NewResolver(root string, osType domain.OSType) *Resolver {
	return NewResolverFS(os.DirFS(root), root, osType)
}

// NewResolverFS creates a Resolver over an arbitrary file system.
// root is only used to build the on-disk Path of a Location.
func NewResolverFS(fsys fs.FS, root string, osType domain.OSType) *Resolver {
	return &Resolver{
		fsys:   fsys,
		root:   root,
		osType: osType,
	}
}

// FS returns the file system the resolver searches.
func (r *Resolver) FS() fs.FS {
	return r.fsys
}

// OSType returns the naming rules in effect.
func (r *Resolver) OSType() domain.OSType {
	return r.osType
}

// Resolve returns the screenshot for tc. A missing screenshot is reported as
// an error wrapping errors.ErrScreenshotNotFound; it is a per-item condition.
func (r *Resolver) Resolve(ctx context.Context, tc domain.FailedTestCase) (Location, error) {
	if err := ctx.Err(); err != nil {
		return Location{}, err
	}

	if r.osType.IsIOS() {
		return r.resolveIOS(ctx, tc)
	}
	return r.resolveAndroid(ctx, tc)
}

// resolveAndroid checks the single candidate {storage}/{name}{ext}.
func (r *Resolver) resolveAndroid(ctx context.Context, tc domain.FailedTestCase) (Location, error) {
	log := zerolog.Ctx(ctx)

	name := path.Join(tc.AutomatedTestStorage, tc.AutomatedTestName+r.osType.ImageExtension())
	log.Debug().Str("path", r.diskPath(name)).Msg("searching for image")

	if !fs.ValidPath(name) {
		return Location{}, notFound(tc)
	}

	info, err := fs.Stat(r.fsys, name)
	if err != nil || !info.Mode().IsRegular() {
		return Location{}, notFound(tc)
	}

	return Location{Name: name, Path: r.diskPath(name)}, nil
}

// resolveIOS globs {class}/{name}*/*.jpg and keeps the first match.
// xcparse exports attachments into one directory per test, suffixed with
// the device or repetition, so the directory name is not predictable.
func (r *Resolver) resolveIOS(ctx context.Context, tc domain.FailedTestCase) (Location, error) {
	log := zerolog.Ctx(ctx)

	pattern := escapeMeta(tc.AutomatedTestName) + "*/*" + constants.ExtensionIOS
	if class := ClassName(tc.AutomatedTestStorage); class != "" {
		pattern = escapeMeta(class) + "/" + pattern
	}
	log.Debug().Str("pattern", r.diskPath(pattern)).Msg("searching for image")

	matches, err := doublestar.Glob(r.fsys, pattern)
	if err != nil {
		return Location{}, errors.Wrapf(notFound(tc), "glob %s: %v", pattern, err)
	}
	if len(matches) == 0 {
		return Location{}, notFound(tc)
	}

	if len(matches) > 1 {
		log.Debug().
			Int("matches", len(matches)).
			Str("chosen", matches[0]).
			Msg("multiple screenshots found, choosing first")
	}

	return Location{Name: matches[0], Path: r.diskPath(matches[0])}, nil
}

func (r *Resolver) diskPath(name string) string {
	return filepath.Join(r.root, filepath.FromSlash(name))
}

func notFound(tc domain.FailedTestCase) error {
	return errors.Wrapf(errors.ErrScreenshotNotFound, "no screenshot found for %s", tc)
}

// ClassName returns the Xcode class for a test storage value.
// Xcode sometimes reports "{app}.{class}" (e.g. MyApp.UITests); xcparse
// writes only the class. Any other shape is used unmodified.
func ClassName(storage string) string {
	parts := strings.Split(storage, ".")
	if len(parts) == 2 {
		return parts[1]
	}
	return storage
}

// escapeMeta escapes glob metacharacters so test names match literally.
func escapeMeta(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
