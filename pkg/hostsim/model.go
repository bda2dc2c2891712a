package hostsim

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/accessbridge/accessbridge/pkg/hostproto"
)

// object is one design-surface object in the simulated host.
type object struct {
	Name       string
	Loaded     bool
	DesignView bool
	Props      map[string]interface{}
	Controls   map[string]*object

	// snapshot holds the property state at open time, restored when the
	// object is closed with changes discarded.
	snapshot map[string]interface{}
}

// model is the simulated object model of one open database file.
type model struct {
	objects map[hostproto.ObjectKind]map[string]*object
}

// sidecarObject is the JSON shape of one object in the design sidecar file.
type sidecarObject struct {
	Properties map[string]interface{}    `json:"properties,omitempty"`
	Controls   map[string]*sidecarObject `json:"controls,omitempty"`
}

// sidecar is the JSON shape of "<path>.design.json".
type sidecar struct {
	Forms   map[string]*sidecarObject `json:"forms,omitempty"`
	Reports map[string]*sidecarObject `json:"reports,omitempty"`
	Macros  map[string]*sidecarObject `json:"macros,omitempty"`
	Modules map[string]*sidecarObject `json:"modules,omitempty"`
	Queries map[string]*sidecarObject `json:"queries,omitempty"`
}

// loadModel builds the object model for a database file, seeding it from the
// design sidecar when one exists next to the file.
func loadModel(path string) (*model, error) {
	m := &model{
		objects: map[hostproto.ObjectKind]map[string]*object{
			hostproto.ObjectKindForm:   {},
			hostproto.ObjectKindReport: {},
			hostproto.ObjectKindMacro:  {},
			hostproto.ObjectKindModule: {},
			hostproto.ObjectKindQuery:  {},
		},
	}

	data, err := os.ReadFile(path + ".design.json")
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read design sidecar: %w", err)
	}

	var sc sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse design sidecar: %w", err)
	}

	m.seed(hostproto.ObjectKindForm, sc.Forms)
	m.seed(hostproto.ObjectKindReport, sc.Reports)
	m.seed(hostproto.ObjectKindMacro, sc.Macros)
	m.seed(hostproto.ObjectKindModule, sc.Modules)
	m.seed(hostproto.ObjectKindQuery, sc.Queries)

	return m, nil
}

func (m *model) seed(kind hostproto.ObjectKind, src map[string]*sidecarObject) {
	for name, so := range src {
		m.objects[kind][name] = buildObject(name, so)
	}
}

func buildObject(name string, so *sidecarObject) *object {
	o := &object{
		Name:     name,
		Props:    map[string]interface{}{"Name": name},
		Controls: map[string]*object{},
	}
	if so == nil {
		return o
	}
	for k, v := range so.Properties {
		o.Props[k] = v
	}
	for cname, cso := range so.Controls {
		o.Controls[cname] = buildObject(cname, cso)
	}
	return o
}

// lookup finds an object by kind and name.
func (m *model) lookup(kind hostproto.ObjectKind, name string) (*object, bool) {
	byName, ok := m.objects[kind]
	if !ok {
		return nil, false
	}
	o, ok := byName[name]
	return o, ok
}

// names lists the object names of a kind, sorted.
func (m *model) names(kind hostproto.ObjectKind) []string {
	byName := m.objects[kind]
	out := make([]string, 0, len(byName))
	for name := range byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// collectionKinds maps member-path collection names to object kinds.
var collectionKinds = map[string]hostproto.ObjectKind{
	"Forms":   hostproto.ObjectKindForm,
	"Reports": hostproto.ObjectKindReport,
	"Macros":  hostproto.ObjectKindMacro,
	"Modules": hostproto.ObjectKindModule,
	"Queries": hostproto.ObjectKindQuery,
}

// resolve walks a member path rooted at the application object, e.g.
// "Forms!Orders.Controls!txtID". An empty path is the application itself,
// represented as nil.
func (m *model) resolve(path string) (*object, error) {
	if path == "" {
		return nil, nil
	}

	var current *object
	for _, segment := range strings.Split(path, ".") {
		collection, item, hasItem := strings.Cut(segment, "!")
		if !hasItem {
			return nil, fmt.Errorf("unresolvable path segment: %s", segment)
		}

		if current == nil {
			kind, ok := collectionKinds[collection]
			if !ok {
				return nil, fmt.Errorf("unknown collection: %s", collection)
			}
			o, ok := m.lookup(kind, item)
			if !ok {
				return nil, fmt.Errorf("object not found: %s", segment)
			}
			current = o
			continue
		}

		if collection != "Controls" {
			return nil, fmt.Errorf("unknown collection: %s", collection)
		}
		child, ok := current.Controls[item]
		if !ok {
			return nil, fmt.Errorf("control not found: %s", item)
		}
		current = child
	}

	return current, nil
}
