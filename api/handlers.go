// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/blinklabs-io/langjourney/internal/version"
	"github.com/blinklabs-io/langjourney/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// errBadRequest marks a malformed path or query value
var errBadRequest = errors.New("bad request")

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeFailure maps err to a status code. Internal errors are logged and
// their text is not sent to the client.
func (s *Server) writeFailure(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errBadRequest),
		errors.Is(err, ErrInvalidPaginationParameters):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(
			"request failed",
			"path", r.URL.Path,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to process request",
		)
	}
}

func pathID(r *http.Request) (uint64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf(
			"%w: invalid address %q",
			errBadRequest,
			raw,
		)
	}
	return common.HexToAddress(raw), nil
}

// learnerParam returns the learner query value, or the zero address when it
// is absent
func learnerParam(r *http.Request) (common.Address, error) {
	raw := r.URL.Query().Get("learner")
	if raw == "" {
		return common.Address{}, nil
	}
	return parseAddress(raw)
}

// writePage writes one page of items with the pagination headers
func writePage[T any, R any](
	w http.ResponseWriter,
	params PaginationParams,
	items []T,
	convert func(*T) R,
) {
	SetPaginationHeaders(w, len(items), params)
	page := Paginate(items, params)
	ret := make([]R, 0, len(page))
	for i := range page {
		ret = append(ret, convert(&page[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleNotFound(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeError(w, http.StatusNotFound, "no such endpoint")
}

func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

func (s *Server) handleInfo(
	w http.ResponseWriter,
	r *http.Request,
) {
	ctx := r.Context()
	resp := InfoResponse{
		Version:         version.GetVersionString(),
		Owner:           s.ledger.Owner().Hex(),
		ContractAddress: s.ledger.ContractAddress().Hex(),
		Indexed:         statsResponse(s.index.Stats()),
	}
	var err error
	if resp.NextPathID, err = s.ledger.NextPathID(ctx); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if resp.NextSubmissionID, err = s.ledger.NextSubmissionID(ctx); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if resp.NextCertificateID, err = s.ledger.NextCertificateID(ctx); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePaths(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writePage(w, params, s.index.Paths(), NewPathResponse)
}

func (s *Server) handlePath(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	path, err := s.ledger.GetPath(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewPathResponse(path))
}

func (s *Server) handlePathTaskCount(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	h, err := s.ledger.GetEncryptedTaskCount(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewHandleResponse(h))
}

// handleSubmissions lists submissions. status=pending is ordered newest
// first, status=reviewed most recently reviewed first, and no status
// returns every submission in id order.
func (s *Server) handleSubmissions(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	learner, err := learnerParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	var subs []ledger.Submission
	switch status := r.URL.Query().Get("status"); status {
	case "pending":
		subs = s.index.PendingSubmissions()
	case "reviewed":
		subs = s.index.ReviewedSubmissions()
	case "":
		if learner != (common.Address{}) {
			subs = s.index.LearnerSubmissions(learner)
			break
		}
		subs = append(s.index.PendingSubmissions(), s.index.ReviewedSubmissions()...)
		sortByID(subs)
	default:
		s.writeFailure(
			w,
			r,
			fmt.Errorf("%w: invalid status %q", errBadRequest, status),
		)
		return
	}
	if learner != (common.Address{}) {
		filtered := subs[:0]
		for _, sub := range subs {
			if sub.Learner == learner {
				filtered = append(filtered, sub)
			}
		}
		subs = filtered
	}
	writePage(w, params, subs, NewSubmissionResponse)
}

func sortByID(subs []ledger.Submission) {
	slices.SortFunc(subs, func(a, b ledger.Submission) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

func (s *Server) handleSubmission(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	sub, err := s.ledger.GetSubmission(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSubmissionResponse(sub))
}

func (s *Server) handleSubmissionScore(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	h, err := s.ledger.GetSubmissionEncryptedScore(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewHandleResponse(h))
}

func (s *Server) handleCertificates(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	learner, err := learnerParam(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writePage(w, params, s.index.Certificates(learner), NewCertificateResponse)
}

func (s *Server) handleCertificate(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	cert, err := s.ledger.GetCertificate(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewCertificateResponse(cert))
}

func (s *Server) handleCertificateScore(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := pathID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	h, err := s.ledger.GetCertificateEncryptedScore(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewHandleResponse(h))
}

func (s *Server) handleTeachers(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writePage(w, params, s.index.Teachers(), func(addr *common.Address) TeacherResponse {
		return TeacherResponse{Address: addr.Hex(), Authorized: true}
	})
}

func (s *Server) handleTeacher(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, err := parseAddress(r.PathValue("address"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	authorized, err := s.ledger.IsAuthorizedTeacher(r.Context(), addr)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TeacherResponse{
		Address:    addr.Hex(),
		Authorized: authorized,
	})
}
