package refs

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/keyfoldhq/keyfold/pkg/server/store"
	"github.com/keyfoldhq/keyfold/pkg/validate"
)

// DefaultMaxDepth caps how many reference hops a single value may trigger.
const DefaultMaxDepth = 8

// ScopeSecretsRead is the action checked before reading a foreign context.
const ScopeSecretsRead = "secrets:read"

var placeholderPattern = regexp.MustCompile(`\$\{([^{}]+)\}`)

// Error is a resolution failure with an HTTP status attached so endpoints can
// relay it directly.
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string { return e.Message }

// NewError builds an Error, defaulting the status to 400.
func NewError(message string, statusCode int) *Error {
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusBadRequest
	}
	return &Error{Message: message, StatusCode: statusCode}
}

// Context identifies one exported config's key space.
type Context struct {
	ProjectSlug string
	ConfigSlug  string
}

// Node is one secret inside a context; the unit of cycle detection.
type Node struct {
	ProjectSlug string
	ConfigSlug  string
	Key         string
}

func (n Node) String() string {
	return n.ProjectSlug + "." + n.ConfigSlug + "." + n.Key
}

// Options wires a Resolver to its collaborators. The lookups are plain funcs
// so callers can back them with stores, fixtures or pre-exported maps.
type Options struct {
	// ProjectSlug and ConfigSlug name the root context whose values are
	// being resolved or validated.
	ProjectSlug string
	ConfigSlug  string

	// GetProjectBySlug returns the project id for a slug. ok=false means the
	// project doesn't exist; references into it resolve to nothing.
	GetProjectBySlug func(slug string) (projectID string, ok bool, err error)

	// GetConfigBySlug returns the config id for a slug within a project.
	GetConfigBySlug func(projectID, slug string) (configID string, ok bool, err error)

	// ExportConfig returns the effective key/value map of a config, parent
	// chain included. store.ErrConfigNotFound is treated as an empty context.
	ExportConfig func(configID string) (map[string]string, error)

	// RequireScope, when set, is consulted before loading any context other
	// than the root. It receives ScopeSecretsRead plus the target ids and
	// should return an *Error to deny access.
	RequireScope func(action, projectID, configID string) error

	// MaxDepth bounds reference hops; zero means DefaultMaxDepth.
	MaxDepth int

	// RootData pre-seeds the root context so resolving it doesn't hit
	// ExportConfig again.
	RootData map[string]string
}

// Resolver expands and validates secret references. It memoizes context
// exports and per-node results, so one instance should serve one request.
type Resolver struct {
	root         Context
	opts         Options
	maxDepth     int
	contextCache map[Context]map[string]string
	resolved     map[Node]string
	validated    map[Node]struct{}
}

func NewResolver(opts Options) (*Resolver, error) {
	maxDepth := opts.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	if maxDepth < 1 {
		return nil, NewError("reference max depth must be >= 1", http.StatusBadRequest)
	}
	r := &Resolver{
		root:         Context{ProjectSlug: opts.ProjectSlug, ConfigSlug: opts.ConfigSlug},
		opts:         opts,
		maxDepth:     maxDepth,
		contextCache: map[Context]map[string]string{},
		resolved:     map[Node]string{},
		validated:    map[Node]struct{}{},
	}
	if opts.RootData != nil {
		seed := make(map[string]string, len(opts.RootData))
		for k, v := range opts.RootData {
			seed[k] = v
		}
		r.contextCache[r.root] = seed
	}
	return r, nil
}

// ResolveMap expands every placeholder in data. Unresolvable and malformed
// references become empty strings; cycles and depth overruns fail the whole
// call.
func (r *Resolver) ResolveMap(data map[string]string) (map[string]string, error) {
	seed := make(map[string]string, len(data))
	for k, v := range data {
		seed[k] = v
	}
	r.contextCache[r.root] = seed

	out := make(map[string]string, len(data))
	for key, value := range data {
		node := Node{r.root.ProjectSlug, r.root.ConfigSlug, key}
		resolved, err := r.resolveValue(value, r.root, []Node{node}, 0)
		if err != nil {
			return nil, err
		}
		out[key] = resolved
	}
	return out, nil
}

// ValidateValueReferences checks every placeholder in value and returns the
// sorted, de-duplicated problem messages. Infrastructure failures (store
// errors, denied scopes) abort with an error instead.
func (r *Resolver) ValidateValueReferences(key, value string) ([]string, error) {
	if !strings.Contains(value, "${") {
		return nil, nil
	}
	source := Node{r.root.ProjectSlug, r.root.ConfigSlug, key}
	seen := map[string]struct{}{}
	var messages []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(value, -1) {
		token := strings.TrimSpace(match[1])
		node, ok := r.parseReference(token, r.root)
		if !ok {
			messages = appendUnique(messages, seen, "Invalid reference syntax: "+match[0])
			continue
		}
		if err := r.ensureResolvable(node, []Node{source}, 0); err != nil {
			var refErr *Error
			if errors.As(err, &refErr) {
				messages = appendUnique(messages, seen, refErr.Message)
				continue
			}
			return nil, err
		}
	}
	sort.Strings(messages)
	return messages, nil
}

func appendUnique(messages []string, seen map[string]struct{}, message string) []string {
	if _, dup := seen[message]; dup {
		return messages
	}
	seen[message] = struct{}{}
	return append(messages, message)
}

func (r *Resolver) resolveValue(value string, current Context, stack []Node, depth int) (string, error) {
	if !strings.Contains(value, "${") {
		return value, nil
	}
	var walkErr error
	out := placeholderPattern.ReplaceAllStringFunc(value, func(placeholder string) string {
		if walkErr != nil {
			return ""
		}
		token := strings.TrimSpace(placeholder[2 : len(placeholder)-1])
		node, ok := r.parseReference(token, current)
		if !ok {
			return ""
		}
		resolved, found, err := r.resolveKey(node, stack, depth)
		if err != nil {
			walkErr = err
			return ""
		}
		if !found {
			return ""
		}
		return resolved
	})
	if walkErr != nil {
		return "", walkErr
	}
	return out, nil
}

func (r *Resolver) resolveKey(node Node, stack []Node, depth int) (string, bool, error) {
	if depth >= r.maxDepth {
		return "", false, NewError(fmt.Sprintf(
			"Secret reference max depth exceeded (%d) while resolving %s",
			r.maxDepth, node), http.StatusBadRequest)
	}
	if onStack(stack, node) {
		return "", false, NewError("Secret reference cycle detected: "+cyclePath(stack, node), http.StatusBadRequest)
	}
	if cached, ok := r.resolved[node]; ok {
		return cached, true, nil
	}

	context := Context{node.ProjectSlug, node.ConfigSlug}
	data, err := r.loadContextData(context)
	if err != nil {
		return "", false, err
	}
	raw, ok := data[node.Key]
	if !ok {
		return "", false, nil
	}

	resolved, err := r.resolveValue(raw, context, append(stack, node), depth+1)
	if err != nil {
		return "", false, err
	}
	r.resolved[node] = resolved
	return resolved, true, nil
}

func (r *Resolver) ensureResolvable(node Node, stack []Node, depth int) error {
	if depth >= r.maxDepth {
		return NewError(fmt.Sprintf(
			"Secret reference max depth exceeded (%d) while validating %s",
			r.maxDepth, node), http.StatusBadRequest)
	}
	if onStack(stack, node) {
		return NewError("Secret reference cycle detected: "+cyclePath(stack, node), http.StatusBadRequest)
	}
	if _, ok := r.validated[node]; ok {
		return nil
	}

	context := Context{node.ProjectSlug, node.ConfigSlug}
	data, err := r.loadContextData(context)
	if err != nil {
		return err
	}
	raw, ok := data[node.Key]
	if !ok {
		return NewError(fmt.Sprintf("Unresolved reference: ${%s}", node), http.StatusBadRequest)
	}

	for _, match := range placeholderPattern.FindAllStringSubmatch(raw, -1) {
		token := strings.TrimSpace(match[1])
		nested, ok := r.parseReference(token, context)
		if !ok {
			return NewError(fmt.Sprintf("Invalid reference syntax in %s: %s", node, match[0]), http.StatusBadRequest)
		}
		if err := r.ensureResolvable(nested, append(stack, node), depth+1); err != nil {
			return err
		}
	}

	r.validated[node] = struct{}{}
	return nil
}

// parseReference accepts KEY, CONFIG.KEY and PROJECT.CONFIG.KEY tokens.
func (r *Resolver) parseReference(token string, current Context) (Node, bool) {
	parts := strings.Split(token, ".")
	switch len(parts) {
	case 1:
		key := parts[0]
		if !validate.EnvKey(key) {
			return Node{}, false
		}
		return Node{current.ProjectSlug, current.ConfigSlug, key}, true
	case 2:
		configSlug, key := parts[0], parts[1]
		if !validate.Slug(configSlug) || !validate.EnvKey(key) {
			return Node{}, false
		}
		return Node{current.ProjectSlug, configSlug, key}, true
	case 3:
		projectSlug, configSlug, key := parts[0], parts[1], parts[2]
		if !validate.Slug(projectSlug) || !validate.Slug(configSlug) || !validate.EnvKey(key) {
			return Node{}, false
		}
		return Node{projectSlug, configSlug, key}, true
	}
	return Node{}, false
}

// loadContextData exports one context's effective values, memoized. Missing
// projects and configs are empty contexts rather than errors; any other
// export failure aborts resolution.
func (r *Resolver) loadContextData(context Context) (map[string]string, error) {
	if cached, ok := r.contextCache[context]; ok {
		return cached, nil
	}

	empty := func() map[string]string {
		data := map[string]string{}
		r.contextCache[context] = data
		return data
	}

	projectID, ok, err := r.opts.GetProjectBySlug(context.ProjectSlug)
	if err != nil {
		return nil, err
	}
	if !ok {
		return empty(), nil
	}
	configID, ok, err := r.opts.GetConfigBySlug(projectID, context.ConfigSlug)
	if err != nil {
		return nil, err
	}
	if !ok {
		return empty(), nil
	}
	if r.opts.RequireScope != nil {
		if err := r.opts.RequireScope(ScopeSecretsRead, projectID, configID); err != nil {
			return nil, err
		}
	}

	data, err := r.opts.ExportConfig(configID)
	if err != nil {
		if errors.Is(err, store.ErrConfigNotFound) {
			return empty(), nil
		}
		var refErr *Error
		if errors.As(err, &refErr) {
			return nil, refErr
		}
		return nil, NewError(err.Error(), http.StatusBadRequest)
	}

	r.contextCache[context] = data
	return data, nil
}

func onStack(stack []Node, node Node) bool {
	for _, item := range stack {
		if item == node {
			return true
		}
	}
	return false
}

func cyclePath(stack []Node, node Node) string {
	parts := make([]string, 0, len(stack)+1)
	for _, item := range stack {
		parts = append(parts, item.String())
	}
	parts = append(parts, node.String())
	return strings.Join(parts, " -> ")
}
