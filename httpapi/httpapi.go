/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package httpapi exposes a read-only JSON introspection surface over the
// plan hierarchy plus operator interrupt/continue controls, mirroring the
// teacher's own admin HTTP interface (/stats, /members) built directly on
// net/http and encoding/json.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	log "github.com/golang/glog"

	"github.com/teletome/dcos-commons/plan"
)

// StepView is the JSON-rendered shape of one step.
type StepView struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// PhaseView is the JSON-rendered shape of one phase.
type PhaseView struct {
	Name   string     `json:"name"`
	Status string     `json:"status"`
	Steps  []StepView `json:"steps"`
}

// PlanView is the JSON-rendered shape of one plan.
type PlanView struct {
	Name   string      `json:"name"`
	Status string      `json:"status"`
	Active bool        `json:"active"`
	Phases []PhaseView `json:"phases"`
}

// Server serves the introspection endpoints over manager.
type Server struct {
	manager *plan.Manager
	mux     *http.ServeMux
}

// New constructs a Server and registers its routes.
func New(manager *plan.Manager) *Server {
	s := &Server{manager: manager, mux: http.NewServeMux()}
	s.mux.HandleFunc("/v1/plans", s.handlePlans)
	s.mux.HandleFunc("/v1/plans/", s.handlePlanDetail)
	return s
}

// ListenAndServe blocks serving on addr, matching the teacher's
// fire-and-forget AdminHTTP convention: a failure here is logged and the
// caller decides whether to shut the process down.
func (s *Server) ListenAndServe(addr string) error {
	log.Infof("httpapi: introspection interface listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	log.V(2).Infof("httpapi: %s %s", r.Method, r.URL.Path)
	views := make([]PlanView, 0)
	active := s.manager.ActivePlan()
	dirty := s.manager.DirtyAssets()
	for _, p := range s.manager.Plans() {
		views = append(views, renderPlan(p, p == active, dirty))
	}
	writeJSON(w, views)
}

func (s *Server) handlePlanDetail(w http.ResponseWriter, r *http.Request) {
	log.V(2).Infof("httpapi: %s %s", r.Method, r.URL.Path)
	rest := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	name, action, _ := strings.Cut(rest, "/")

	p := s.manager.Plan(name)
	if p == nil {
		http.Error(w, fmt.Sprintf("no such plan %q", name), http.StatusNotFound)
		return
	}

	switch action {
	case "":
		writeJSON(w, renderPlan(p, p == s.manager.ActivePlan(), s.manager.DirtyAssets()))
	case "interrupt":
		p.Interrupt()
		fmt.Fprint(w, "interrupted")
	case "continue":
		p.Continue()
		fmt.Fprint(w, "continued")
	default:
		http.Error(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

func renderPlan(p *plan.Plan, active bool, dirty []plan.PodInstanceRequirement) PlanView {
	view := PlanView{Name: p.Name, Status: p.Status(dirty).String(), Active: active}
	for _, ph := range p.Phases {
		view.Phases = append(view.Phases, renderPhase(ph, dirty))
	}
	return view
}

func renderPhase(ph *plan.Phase, dirty []plan.PodInstanceRequirement) PhaseView {
	view := PhaseView{Name: ph.Name, Status: ph.Status(dirty).String()}
	for _, st := range ph.Steps {
		sv := StepView{Name: st.Name(), Status: st.Status().String()}
		if err := st.Errors(); err != nil {
			sv.Error = err.Error()
		}
		view.Steps = append(view.Steps, sv)
	}
	return view
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("httpapi: failed to encode response: %v", err)
	}
}
