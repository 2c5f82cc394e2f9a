package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mercator-hq/prgate/pkg/comparator"
	"mercator-hq/prgate/pkg/gate"
	"mercator-hq/prgate/pkg/policypack"
	"mercator-hq/prgate/pkg/prcontext"
	"mercator-hq/prgate/pkg/server/middleware"
)

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	PullRequest json.RawMessage `json:"pull_request"`
	RuleSet     *gate.RuleSet   `json:"rule_set,omitempty"`
}

// ComparatorsResponse is the body of GET /v1/comparators.
type ComparatorsResponse struct {
	Fingerprint string                  `json:"fingerprint"`
	Comparators []comparator.Descriptor `json:"comparators"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, r, http.StatusRequestEntityTooLarge, middleware.ErrTypeTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrTypeInvalidRequest,
			"invalid JSON body: "+err.Error())
		return
	}
	if len(req.PullRequest) == 0 || bytes.Equal(req.PullRequest, []byte("null")) {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrTypeInvalidRequest,
			"pull_request is required")
		return
	}

	pr, err := prcontext.Decode(bytes.NewReader(req.PullRequest))
	if err != nil {
		var verr *prcontext.ValidationError
		if errors.As(err, &verr) {
			middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrTypeInvalidRequest,
				"invalid pull_request", verr.Errors...)
			return
		}
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrTypeInvalidRequest,
			"invalid pull_request: "+err.Error())
		return
	}

	rs := req.RuleSet
	if rs == nil {
		pack := s.currentPack()
		if pack == nil {
			middleware.WriteError(w, r, http.StatusServiceUnavailable, middleware.ErrTypeUnavailable,
				policypack.ErrNoPack.Error())
			return
		}
		rs = pack.RuleSet
	} else {
		normalizeRuleSet(rs)
	}

	report, err := s.deps.Engine.Evaluate(r.Context(), rs, pr)
	if err != nil {
		s.writeEvaluateError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) writeEvaluateError(w http.ResponseWriter, r *http.Request, err error) {
	var unresolved *comparator.UnresolvedComparatorsError
	var invalid *gate.RuleSetError
	switch {
	case errors.As(err, &unresolved):
		ids := make([]string, len(unresolved.IDs))
		for i, id := range unresolved.IDs {
			ids[i] = string(id)
		}
		middleware.WriteError(w, r, http.StatusUnprocessableEntity, middleware.ErrTypeUnresolved,
			err.Error(), ids...)
	case errors.As(err, &invalid):
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrTypeInvalidRequest,
			"invalid rule_set", invalid.Errors...)
	default:
		s.logger.ErrorContext(r.Context(), "evaluation failed", "error", err)
		middleware.WriteError(w, r, http.StatusInternalServerError, middleware.ErrTypeInternal,
			"evaluation failed")
	}
}

func (s *Server) handleComparators(w http.ResponseWriter, r *http.Request) {
	reg := s.deps.Engine.Registry()
	middleware.WriteJSON(w, http.StatusOK, ComparatorsResponse{
		Fingerprint: reg.Fingerprint(),
		Comparators: reg.Describe(),
	})
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	if s.deps.Policy == nil {
		middleware.WriteError(w, r, http.StatusNotFound, middleware.ErrTypeUnavailable,
			"no policy source configured")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, s.deps.Policy.Status())
}

func (s *Server) currentPack() *policypack.Pack {
	if s.deps.Policy == nil {
		return nil
	}
	return s.deps.Policy.Current()
}

// normalizeRuleSet accepts kebab-case and lower-case comparator names in
// inline rule sets, as policy files do.
func normalizeRuleSet(rs *gate.RuleSet) {
	if rs.Name == "" {
		rs.Name = "inline"
	}
	for i := range rs.Rules {
		rs.Rules[i].Comparator = comparator.NormalizeID(strings.TrimSpace(string(rs.Rules[i].Comparator)))
	}
}
