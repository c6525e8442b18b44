package esio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Tiancheng-Luo/go-esio/internal/logging"
)

// restartTemplate is a parsed restart filename template: the directory,
// the basename split around its single run of '#', and the minimum
// decimal field width that run requests.
type restartTemplate struct {
	dir    string
	prefix string
	suffix string
	width  int
}

// parseTemplate splits a template path around the '#' run in its final
// component. The basename must contain exactly one contiguous run.
func parseTemplate(template string) (*restartTemplate, error) {
	dir, base := filepath.Split(template)
	first := strings.IndexByte(base, '#')
	if first < 0 {
		return nil, fmt.Errorf("template %q contains no '#' run", template)
	}
	last := first
	for last+1 < len(base) && base[last+1] == '#' {
		last++
	}
	if strings.IndexByte(base[last+1:], '#') >= 0 {
		return nil, fmt.Errorf("template %q contains more than one '#' run", template)
	}
	if dir == "" {
		dir = "."
	}
	return &restartTemplate{
		dir:    dir,
		prefix: base[:first],
		suffix: base[last+1:],
		width:  last - first + 1,
	}, nil
}

// slot formats the path of index i under the template.
func (t *restartTemplate) slot(i int) string {
	return filepath.Join(t.dir, fmt.Sprintf("%s%0*d%s", t.prefix, t.width, i, t.suffix))
}

// nextIndex matches name against the template and returns the stored
// index plus one. A name that does not match returns 0; a matching
// index whose successor overflows is an error.
func (t *restartTemplate) nextIndex(name string) (int, error) {
	if len(name) < len(t.prefix)+len(t.suffix)+1 {
		return 0, nil
	}
	if !strings.HasPrefix(name, t.prefix) || !strings.HasSuffix(name, t.suffix) {
		return 0, nil
	}
	digits := name[len(t.prefix) : len(name)-len(t.suffix)]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, nil
		}
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		// All-digit but unparsable means the value exceeds the integer
		// range; its successor cannot be represented either.
		return 0, fmt.Errorf("index %q overflows", digits)
	}
	if v+1 < v {
		return 0, fmt.Errorf("index %q overflows", digits)
	}
	return v + 1, nil
}

// RestartRename installs src as the newest restart file under the
// template, shifting previously retained files one index outward.
//
// The template's final component must contain exactly one contiguous
// run of '#'; the run's length is the minimum field width of the
// decimal index and widens automatically when keep needs more digits.
// Files whose shifted index would reach keep drop out of the rotation
// but are not deleted. The call is process-local: in a parallel job
// exactly one rank performs the rotation.
func RestartRename(src, template string, keep int) error {
	const op = "restart_rename"
	if keep < 1 {
		return errInvalid(op, template, "keep must be at least one")
	}
	if _, err := os.Stat(src); err != nil {
		return errInvalid(op, src, "source does not exist")
	}
	t, err := parseTemplate(template)
	if err != nil {
		return errInvalid(op, template, err.Error())
	}
	if w := len(strconv.Itoa(keep)); w > t.width {
		t.width = w
	}

	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return errFailed(op, t.dir, err)
	}
	type match struct {
		name string
		idx  int
	}
	var matches []match
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		next, err := t.nextIndex(e.Name())
		if err != nil {
			return errSanity(op, e.Name(), err.Error())
		}
		if next > 0 {
			matches = append(matches, match{name: e.Name(), idx: next - 1})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].idx != matches[j].idx {
			return matches[i].idx < matches[j].idx
		}
		return matches[i].name < matches[j].name
	})

	// Shift from the highest index down so a rename never lands on a
	// slot that has not been vacated yet.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if m.idx+1 >= keep {
			// Beyond the retention horizon: left in place, not unlinked.
			logging.Debug("restart dropped from rotation", "name", m.name, "index", m.idx)
			continue
		}
		if err := os.Rename(filepath.Join(t.dir, m.name), t.slot(m.idx+1)); err != nil {
			return errFailed(op, m.name, err)
		}
	}

	if err := os.Rename(src, t.slot(0)); err != nil {
		return errFailed(op, src, err)
	}
	logging.Info("restart rotated", "src", src, "dst", t.slot(0), "keep", keep)
	return nil
}
