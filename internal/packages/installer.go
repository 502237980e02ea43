package packages

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// DefaultRegistry is the package registry queried when none is configured.
const DefaultRegistry = "https://packages.el-lang.org"

// Installer downloads packages from a registry into a cache.
type Installer struct {
	Cache    *Cache
	Registry string
	Client   *http.Client
	Out      io.Writer
}

func NewInstaller(cache *Cache, registry string, out io.Writer) *Installer {
	if registry == "" {
		registry = DefaultRegistry
	}
	return &Installer{
		Cache:    cache,
		Registry: registry,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Out:      out,
	}
}

// Install fetches one "name@version" spec. Already-cached packages are not
// re-downloaded.
func (ins *Installer) Install(spec string) (*Entry, error) {
	name, version, err := SplitSpec(spec)
	if err != nil {
		return nil, err
	}

	if entry, ok, err := ins.Cache.Get(name, version); err != nil {
		return nil, err
	} else if ok {
		fmt.Fprintf(ins.Out, "%s@%s already cached (%s)\n", name, version, humanize.Bytes(uint64(entry.Size)))
		return entry, nil
	}

	url := fmt.Sprintf("%s/%s/%s/%s-%s.el", ins.Registry, name, version, name, version)
	resp, err := ins.Client.Get(url)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", spec)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("downloading %s: registry returned %s", spec, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "downloading %s", spec)
	}

	entry, err := ins.Cache.Put(name, version, data)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(ins.Out, "installed %s@%s (%s)\n", name, version, humanize.Bytes(uint64(entry.Size)))
	return entry, nil
}

// InstallAll fetches every dependency of a manifest, stopping at the first
// failure.
func (ins *Installer) InstallAll(m *Manifest) error {
	if len(m.Dependencies) == 0 {
		fmt.Fprintf(ins.Out, "%s has no dependencies\n", m.Name)
		return nil
	}
	for _, dep := range m.Dependencies {
		if _, err := ins.Install(dep); err != nil {
			return err
		}
	}
	return nil
}
