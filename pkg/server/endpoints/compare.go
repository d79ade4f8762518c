package endpoints

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/keyfoldhq/keyfold/pkg/authn"
	"github.com/keyfoldhq/keyfold/pkg/refs"
	"github.com/keyfoldhq/keyfold/pkg/secrets"
	"github.com/keyfoldhq/keyfold/pkg/server"
	"github.com/keyfoldhq/keyfold/pkg/validate"
)

const (
	defaultCompareConfigLimit = 200
	maxCompareConfigLimit     = 500
	defaultPlaceholderDepth   = 8
)

type compareRowPayload struct {
	ConfigSlug string                  `json:"configSlug"`
	Effective  *secrets.EffectiveValue `json:"effective"`
	Direct     secrets.DirectValue     `json:"direct"`
	Meta       *secrets.Meta           `json:"meta,omitempty"`
	Issues     []refs.Issue            `json:"issues"`
	HasIssues  bool                    `json:"hasIssues"`
}

// RegisterCompareEndpoints registers /v1/projects/{project}/compare.
func RegisterCompareEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/v1/projects/{project}/compare").Subrouter()
	router.Use(s.Auth.Middleware)

	router.HandleFunc("/secrets/{key}", handleCompareSecret(s)).Methods("GET")
}

// handleCompareSecret reports one key's effective value in every config the
// actor may export, flags reference problems per config, and resolves
// placeholders unless raw or resolve_references=false is requested.
func handleCompareSecret(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		vars := mux.Vars(r)
		key := vars["key"]
		if !validate.EnvKey(key) {
			respondWithMessage(w, http.StatusBadRequest, "Invalid secret key")
			return
		}

		limitConfigs := intQuery(r, "limit_configs", defaultCompareConfigLimit)
		if limitConfigs < 1 {
			respondWithMessage(w, http.StatusBadRequest, "limit_configs must be >= 1")
			return
		}
		if limitConfigs > maxCompareConfigLimit {
			respondWithMessage(w, http.StatusBadRequest, "limit_configs must be <= 500")
			return
		}

		project, ok := resolveProject(s, w, vars["project"])
		if !ok {
			return
		}
		id, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		actor := id.Actor

		allConfigs, err := s.Configs.List(project.ID)
		if err != nil {
			respondWithMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		authorized := allConfigs[:0:0]
		for _, config := range allConfigs {
			if authn.Authorize(actor, "secrets:export", project.ID, config.ID) {
				authorized = append(authorized, config)
			}
		}
		if len(authorized) > limitConfigs {
			authorized = authorized[:limitConfigs]
		}

		includeParent := boolQuery(r, "include_parent", true)
		rows, err := s.SecretsEngine.CompareKeyAcrossConfigs(authorized, key, secrets.CompareOptions{
			IncludeParent:   includeParent,
			IncludeMetadata: boolQuery(r, "include_meta", true),
			IncludeEmpty:    boolQuery(r, "include_empty", true),
		})
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, secrets.ErrInvalidKey) || errors.Is(err, secrets.ErrInheritanceCycle) {
				status = http.StatusBadRequest
			}
			respondWithMessage(w, status, err.Error())
			return
		}

		resolveReferences := boolQuery(r, "resolve_references", true) && !boolQuery(r, "raw", false)
		maxDepth := intQuery(r, "placeholder_max_depth", defaultPlaceholderDepth)

		configIDBySlug := make(map[string]string, len(authorized))
		for _, config := range authorized {
			configIDBySlug[config.Slug] = config.ID
		}

		type exportResult struct {
			data map[string]string
			err  error
		}
		exportCache := map[string]exportResult{}

		payload := make([]compareRowPayload, 0, len(rows))
		rowIssues := make([][]refs.Issue, 0, len(rows))
		for _, row := range rows {
			out := compareRowPayload{
				ConfigSlug: row.ConfigSlug,
				Effective:  row.Effective,
				Direct:     row.Direct,
				Meta:       row.Meta,
				Issues:     []refs.Issue{},
			}

			if row.Effective == nil {
				out.Issues = append(out.Issues, refs.NewIssue(
					refs.IssueMissingEffectiveValue,
					"Key is missing in this config and its inheritance chain.",
				))
				out.HasIssues = true
				payload = append(payload, out)
				rowIssues = append(rowIssues, out.Issues)
				continue
			}

			if !strings.Contains(row.Effective.Value, "${") {
				payload = append(payload, out)
				rowIssues = append(rowIssues, out.Issues)
				continue
			}

			configID := configIDBySlug[row.ConfigSlug]
			cached, ok := exportCache[configID]
			if !ok {
				data, _, err := s.SecretsEngine.Export(configID, includeParent, false)
				cached = exportResult{data: data, err: err}
				exportCache[configID] = cached
			}
			if cached.err != nil {
				out.Issues = append(out.Issues, refs.NewIssue(
					refs.IssueBrokenReferenceUnresolved,
					"Unable to evaluate references: "+cached.err.Error(),
				))
				out.HasIssues = true
				payload = append(payload, out)
				rowIssues = append(rowIssues, out.Issues)
				continue
			}

			resolver, err := newReferenceResolver(s, actor, project.Slug, row.ConfigSlug, maxDepth, cached.data)
			if err != nil {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
			validationErrors, err := resolver.ValidateValueReferences(key, row.Effective.Value)
			if err != nil {
				respondWithMessage(w, http.StatusInternalServerError, err.Error())
				return
			}
			seenCodes := map[string]struct{}{}
			for _, message := range validationErrors {
				code := refs.ClassifyReferenceError(message)
				if _, dup := seenCodes[code]; dup {
					continue
				}
				seenCodes[code] = struct{}{}
				out.Issues = append(out.Issues, refs.NewIssue(code, message))
			}

			if resolveReferences && !refs.HasBrokenReference(out.Issues) {
				resolved, err := resolver.ResolveMap(cached.data)
				if err != nil {
					var refErr *refs.Error
					if !errors.As(err, &refErr) {
						respondWithMessage(w, http.StatusInternalServerError, err.Error())
						return
					}
					code := refs.ClassifyReferenceError(refErr.Message)
					if _, dup := seenCodes[code]; !dup {
						out.Issues = append(out.Issues, refs.NewIssue(code, refErr.Message))
					}
				} else {
					effective := *row.Effective
					effective.Value = resolved[key]
					out.Effective = &effective
				}
			}

			out.HasIssues = len(out.Issues) > 0
			payload = append(payload, out)
			rowIssues = append(rowIssues, out.Issues)
		}

		uniqueValues := map[string]struct{}{}
		missingCount := 0
		for _, row := range payload {
			if row.Effective == nil {
				missingCount++
				continue
			}
			uniqueValues[row.Effective.Value] = struct{}{}
		}

		auditRequest(s, r, id, "secrets.compare", project.ID, "", http.StatusOK, started, "")
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "OK",
			"project": project.Slug,
			"key":     key,
			"configs": payload,
			"summary": secrets.CompareSummary{
				UniqueEffectiveValues: len(uniqueValues),
				MissingCount:          missingCount,
				Conflict:              len(uniqueValues) > 1,
			},
			"issuesSummary": refs.BuildIssueSummary(rowIssues),
		})
	}
}
