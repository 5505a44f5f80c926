package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"janitorr-hq/overseer/pkg/config"
	"janitorr-hq/overseer/pkg/policystore"
)

// SettingsSection is the form section that edits the dashboard's own
// configuration instead of Janitorr's.
const SettingsSection = "gui-service"

type configResponse struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	YAML   string `json:"yaml"`
	Config any    `json:"config"`
	Error  string `json:"error,omitempty"`
}

type previewResponse struct {
	Section string `json:"section,omitempty"`
	YAML    string `json:"yaml"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	store := s.opts.Source.Policy()
	resp := configResponse{Path: store.Path(), Exists: store.Exists()}

	raw, err := store.ReadRaw()
	switch {
	case err == nil:
		resp.YAML = string(raw)
	case errors.Is(err, policystore.ErrNotFound):
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	default:
		s.logger.ErrorContext(r.Context(), "failed to read janitorr configuration", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read configuration")
		return
	}

	doc, err := policystore.Parse(raw)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Config = policystore.JSONValue(doc)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePutConfig replaces Janitorr's configuration with a raw YAML body, or
// with the "config" field of a form post.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	data, err := s.readConfigBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	store := s.opts.Source.Policy()
	if err := store.WriteRaw(data); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "path": store.Path()})
}

// handleConfigSection applies one settings tab. The gui-service section goes
// to the dashboard's own file; every other section edits Janitorr's.
func (s *Server) handleConfigSection(w http.ResponseWriter, r *http.Request) {
	form, err := s.parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	section := form.Get(policystore.FormSectionKey)

	if section == SettingsSection {
		if s.opts.SettingsPath == "" {
			writeError(w, http.StatusConflict, "dashboard settings file not configured")
			return
		}
		if err := config.UpdateSettings(s.opts.SettingsPath, settingsValues(form)); err != nil {
			s.logger.WarnContext(r.Context(), "dashboard settings rejected", "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if s.opts.OnSettingsChanged != nil {
			s.opts.OnSettingsChanged()
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "section": section})
		return
	}

	store := s.opts.Source.Policy()
	doc, err := store.Read()
	if err != nil {
		if !errors.Is(err, policystore.ErrNotFound) {
			s.writeStoreError(w, r, err)
			return
		}
		doc = policystore.Document{}
	}
	if err := policystore.ApplyForm(doc, form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := store.Write(doc); err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "configuration section saved", "section", section)
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "section": section})
}

// handleConfigPreview shows what a save would do. A raw YAML body, or a
// form carrying "config", is diffed against the current file. A section
// form returns the YAML that saving it would produce.
func (s *Server) handleConfigPreview(w http.ResponseWriter, r *http.Request) {
	if !isFormRequest(r) {
		data, err := s.readConfigBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.previewDiff(w, r, data)
		return
	}

	form, err := s.parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if form.Has("config") {
		s.previewDiff(w, r, []byte(form.Get("config")))
		return
	}

	section := form.Get(policystore.FormSectionKey)
	if section == SettingsSection {
		data, err := config.PreviewSettings(s.opts.SettingsPath, settingsValues(form))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, previewResponse{Section: section, YAML: string(data)})
		return
	}

	doc, err := s.opts.Source.Policy().Read()
	if err != nil {
		if !errors.Is(err, policystore.ErrNotFound) {
			s.writeStoreError(w, r, err)
			return
		}
		doc = policystore.Document{}
	}
	next := doc.Clone()
	if err := policystore.ApplyForm(next, form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := policystore.Marshal(next)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{Section: section, YAML: string(data)})
}

func (s *Server) previewDiff(w http.ResponseWriter, r *http.Request, data []byte) {
	next, err := policystore.Parse(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	current, err := s.opts.Source.Policy().Read()
	if err != nil {
		if !errors.Is(err, policystore.ErrNotFound) {
			s.writeStoreError(w, r, err)
			return
		}
		current = policystore.Document{}
	}

	preview, err := policystore.Diff(current, next)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, policystore.ErrMalformed) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.ErrorContext(r.Context(), "configuration store failure", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to update configuration")
}

func (s *Server) readConfigBody(r *http.Request) ([]byte, error) {
	if isFormRequest(r) {
		form, err := s.parseForm(r)
		if err != nil {
			return nil, err
		}
		if !form.Has("config") {
			return nil, errors.New("missing config field")
		}
		return []byte(form.Get("config")), nil
	}

	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, s.config().Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.New("configuration too large")
		}
		return nil, errors.New("failed to read request body")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("empty configuration")
	}
	return data, nil
}

func (s *Server) parseForm(r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.config().Server.MaxBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.config().Server.MaxBodyBytes); err != nil {
			return nil, errors.New("invalid form submission")
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, errors.New("invalid form submission")
	}
	return r.PostForm, nil
}

func isFormRequest(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// settingsValues picks the dashboard settings out of a form. Unchecked
// checkboxes are absent from a form post and are saved as false, except
// the login method flags when the form picks an auth mode instead.
func settingsValues(form url.Values) map[string]string {
	values := map[string]string{}
	for key := range form {
		if config.IsSetting(key) {
			values[key] = form.Get(key)
		}
	}
	_, hasMode := values[config.SettingAuthMode]
	for _, key := range config.CheckboxSettings {
		if hasMode && (key == settingLegacyEnabled || key == settingLDAPEnabled) {
			continue
		}
		if _, ok := values[key]; !ok {
			values[key] = "false"
		}
	}
	return values
}

const (
	settingLegacyEnabled = "gui.legacy_auth.enabled"
	settingLDAPEnabled   = "gui.ldap.enabled"
)
