package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/gologin/v2"
	"github.com/dghubble/gologin/v2/google"
	"github.com/dghubble/sessions"
	"github.com/gofrs/uuid"
	gmux "github.com/gorilla/mux"
	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"

	"github.com/tempsentry/tempsentry/internal/pkg/clients"
	"github.com/tempsentry/tempsentry/internal/pkg/config"
	"github.com/tempsentry/tempsentry/internal/pkg/export"
	"github.com/tempsentry/tempsentry/internal/pkg/profile"
	"github.com/tempsentry/tempsentry/internal/pkg/redis"
)

const (
	sessionName    = "tempsentry"
	sessionUserKey = "6E1B43C8-30A1-4E55-BD81-0A9D6C82E1FD"
	post           = "post"
	get            = "get"
	del            = "delete"
	unauthPath     = "/unauth"
)

var sessionStore *sessions.CookieStore

type WebServer struct {
	httpServer    *http.Server
	serverClients clients.ServerClients
}

var allowedAPIKeys []string

func newWebServer(serverConfig config.ServerConfig, clients clients.ServerClients) WebServer {
	allowedAPIKeys = serverConfig.AllowedAPIKeys
	router := gmux.NewRouter().StrictSlash(true)

	w := WebServer{
		serverClients: clients,
	}

	oauth2Config := &oauth2.Config{
		ClientID:     serverConfig.GoogleConfig.ClientId,
		ClientSecret: serverConfig.GoogleConfig.ClientSecret,
		RedirectURL:  serverConfig.GoogleConfig.RedirectURL,
		Endpoint:     googleOAuth2.Endpoint,
		Scopes:       []string{"profile", "email"},
	}
	sessionStore = sessions.NewCookieStore([]byte(serverConfig.GoogleConfig.SessionSecret), nil)
	stateConfig := gologin.DebugOnlyCookieConfig
	router.Handle("/health", http.HandlerFunc(healthHandler)).Methods(get)
	router.Handle("/api/coalitions", requireLogin(http.HandlerFunc(w.coalitionsHandler))).Methods(get)
	router.Handle("/api/groups", requireLogin(http.HandlerFunc(w.groupsHandler))).Methods(get)
	router.Handle("/api/sensors", requireLogin(http.HandlerFunc(w.sensorsHandler))).Methods(get)
	router.Handle("/api/profiles", requireLogin(http.HandlerFunc(w.profilesHandler))).Methods(get)
	router.Handle("/api/profile", requireLogin(http.HandlerFunc(w.profileDetailsHandler))).Methods(get)
	router.Handle("/api/profile/general", requireLogin(http.HandlerFunc(w.profileGeneralHandler))).Methods(post)
	router.Handle("/api/profile/sensors", requireLogin(http.HandlerFunc(w.profileSensorsHandler))).Methods(post)
	router.Handle("/api/alarms/count", requireLogin(http.HandlerFunc(w.alarmCountHandler))).Methods(get)
	router.Handle("/api/draft", requireLogin(http.HandlerFunc(w.draftCreateHandler))).Methods(post)
	router.Handle("/api/draft", requireLogin(http.HandlerFunc(w.draftGetHandler))).Methods(get)
	router.Handle("/api/draft", requireLogin(http.HandlerFunc(w.draftDeleteHandler))).Methods(del)
	router.Handle("/api/draft/command", requireLogin(http.HandlerFunc(w.draftCommandHandler))).Methods(post)
	router.Handle("/api/draft/submit", requireLogin(http.HandlerFunc(w.draftSubmitHandler))).Methods(post)
	router.Handle("/api/export/sensors", requireLogin(http.HandlerFunc(w.sensorExportHandler))).Methods(get)
	router.Handle("/google/login", google.StateHandler(stateConfig, google.LoginHandler(oauth2Config, nil)))
	router.Handle("/google/callback", google.StateHandler(stateConfig, google.CallbackHandler(oauth2Config, issueSession(serverConfig), nil)))
	router.HandleFunc("/logout", logoutHandler)
	router.HandleFunc(unauthPath, unauthHandler).Methods(get)
	spa := spaHandler{
		staticPath: "frontend/build",
		indexPath:  "index.html",
	}
	router.PathPrefix("/").Handler(requireLogin(spa))

	srv := &http.Server{
		Handler:      router,
		Addr:         "0.0.0.0:" + serverConfig.Port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	w.httpServer = srv
	return w
}

func (s WebServer) coalitionsHandler(w http.ResponseWriter, req *http.Request) {
	coalitions, err := s.serverClients.SensorAPI.ListCoalitions(req.Context())
	if err != nil {
		logger.Errorf("listing coalitions: %s", err)
		http.Error(w, `{"error":"Error getting coalitions"}`, http.StatusBadGateway)
		return
	}
	j, _ := json.Marshal(coalitions)
	fmt.Fprintf(w, `{"coalitions":%s}`, string(j))
}

func (s WebServer) groupsHandler(w http.ResponseWriter, req *http.Request) {
	coalitionID := req.URL.Query().Get("coalition_id")
	if coalitionID == "" {
		http.Error(w, `{"error":"Pass coalition_id in request"}`, http.StatusBadRequest)
		return
	}
	groups, err := s.serverClients.SensorAPI.ListGroups(req.Context(), coalitionID)
	if err != nil {
		logger.Errorf("listing groups: %s", err)
		http.Error(w, `{"error":"Error getting groups"}`, http.StatusBadGateway)
		return
	}
	j, _ := json.Marshal(groups)
	fmt.Fprintf(w, `{"groups":%s}`, string(j))
}

func (s WebServer) sensorsHandler(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	groupID := query.Get("group_id")
	if groupID == "" {
		http.Error(w, `{"error":"Pass group_id in request"}`, http.StatusBadRequest)
		return
	}
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil {
		page = 1
	}
	sensors, numPages, err := s.serverClients.SensorAPI.ListSensors(req.Context(), groupID, page, query.Get("search"))
	if err != nil {
		logger.Errorf("listing sensors: %s", err)
		http.Error(w, `{"error":"Error getting sensors"}`, http.StatusBadGateway)
		return
	}
	j, _ := json.Marshal(sensors)
	fmt.Fprintf(w, `{"sensors":%s,"numPages":%d}`, string(j), numPages)
}

func (s WebServer) profilesHandler(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	groupID := query.Get("group_id")
	if groupID == "" {
		http.Error(w, `{"error":"Pass group_id in request"}`, http.StatusBadRequest)
		return
	}
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil {
		page = 1
	}
	profiles, numPages, err := s.serverClients.SensorAPI.ListProfiles(req.Context(), groupID, page)
	if err != nil {
		logger.Errorf("listing alarm profiles: %s", err)
		http.Error(w, `{"error":"Error getting alarm profiles"}`, http.StatusBadGateway)
		return
	}
	j, _ := json.Marshal(profiles)
	fmt.Fprintf(w, `{"profiles":%s,"numPages":%d}`, string(j), numPages)
}

func (s WebServer) profileDetailsHandler(w http.ResponseWriter, req *http.Request) {
	profileID := req.URL.Query().Get("profile_id")
	if profileID == "" {
		http.Error(w, `{"error":"Pass profile_id in request"}`, http.StatusBadRequest)
		return
	}
	sp, err := s.serverClients.SensorAPI.ProfileDetails(req.Context(), profileID)
	if err != nil {
		logger.Errorf("getting profile details: %s", err)
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadGateway)
		return
	}
	j, _ := json.Marshal(sp)
	fmt.Fprintf(w, `{"profile":%s}`, string(j))
}

// profileGeneralHandler saves the general-settings panel for an existing
// profile. The save is skipped when nothing differs from the fetched profile,
// so reopening a panel and pressing save is not a network write.
func (s WebServer) profileGeneralHandler(w http.ResponseWriter, req *http.Request) {
	profileID := req.URL.Query().Get("profile_id")
	if profileID == "" {
		http.Error(w, `{"error":"Pass profile_id in request"}`, http.StatusBadRequest)
		return
	}

	var body struct {
		Name    string                  `json:"name"`
		General profile.GeneralSettings `json:"general_settings"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"Error parsing request"}`, http.StatusBadRequest)
		return
	}

	sp, err := s.serverClients.SensorAPI.ProfileDetails(req.Context(), profileID)
	if err != nil {
		logger.Errorf("getting profile details before general settings save: %s", err)
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadGateway)
		return
	}

	if body.Name == sp.Name && !profile.HasGeneralChanges(body.General, sp) {
		fmt.Fprintf(w, `{"status":"success","changed":false}`)
		return
	}

	payload := profile.GeneralSettingsPayload{
		Name:                 body.Name,
		Enabled:              body.General.Enabled,
		AutomaticallyClose:   body.General.AutomaticallyClose,
		DelayBeforeRepeating: body.General.DelayBeforeRepeating,
		RecoveryTime:         body.General.RecoveryTime,
		SendAcknowledgment:   body.General.SendAcknowledgment,
	}
	if err := s.serverClients.SensorAPI.EditGeneralSettings(req.Context(), profileID, payload); err != nil {
		logger.Errorf("saving general settings: %s", err)
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadGateway)
		return
	}

	fmt.Fprintf(w, `{"status":"success","changed":true}`)
}

func (s WebServer) profileSensorsHandler(w http.ResponseWriter, req *http.Request) {
	profileID := req.URL.Query().Get("profile_id")
	if profileID == "" {
		http.Error(w, `{"error":"Pass profile_id in request"}`, http.StatusBadRequest)
		return
	}

	var body struct {
		SensorIDs []string `json:"sensor_ids"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"Error parsing request"}`, http.StatusBadRequest)
		return
	}
	if len(body.SensorIDs) == 0 {
		http.Error(w, `{"error":"At least one sensor must remain assigned"}`, http.StatusBadRequest)
		return
	}

	if err := s.serverClients.SensorAPI.EditSensors(req.Context(), profileID, body.SensorIDs); err != nil {
		logger.Errorf("saving assigned sensors: %s", err)
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadGateway)
		return
	}

	fmt.Fprintf(w, `{"status":"success"}`)
}

func (s WebServer) alarmCountHandler(w http.ResponseWriter, req *http.Request) {
	coalitionID := req.URL.Query().Get("coalition_id")
	if coalitionID != "" {
		counts, err := s.serverClients.Redis.ReadAlarmCounts(coalitionID, req.Context())
		if err == redis.ErrNotFound {
			http.Error(w, `{"error":"No alarm counts for coalition"}`, http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Errorf("reading cached alarm counts: %s", err)
			http.Error(w, `{"error":"Error getting alarm counts"}`, http.StatusInternalServerError)
			return
		}
		j, _ := json.Marshal(counts)
		fmt.Fprintf(w, `{"counts":%s,"total":%d}`, string(j), counts.Total())
		return
	}

	counts, err := s.serverClients.Redis.ReadAllAlarmCounts(req.Context())
	if err != nil {
		logger.Errorf("reading cached alarm counts: %s", err)
		http.Error(w, `{"error":"Error getting alarm counts"}`, http.StatusInternalServerError)
		return
	}
	j, _ := json.Marshal(counts)
	fmt.Fprintf(w, `{"counts":%s}`, string(j))
}

// draftCreateHandler opens a wizard session. With no profile_id the draft
// starts empty; with one, it is seeded from the fetched profile.
func (s WebServer) draftCreateHandler(w http.ResponseWriter, req *http.Request) {
	draft := profile.NewDraft()

	profileID := req.URL.Query().Get("profile_id")
	if profileID != "" {
		sp, err := s.serverClients.SensorAPI.ProfileDetails(req.Context(), profileID)
		if err != nil {
			logger.Errorf("getting profile details for draft: %s", err)
			http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadGateway)
			return
		}
		draft.LoadFromServer(sp)
	}

	id, err := uuid.NewV4()
	if err != nil {
		logger.Errorf("generating draft id: %s", err)
		http.Error(w, `{"error":"Error creating draft"}`, http.StatusInternalServerError)
		return
	}
	draftID := id.String()

	if err := s.writeDraft(req, draftID, draft); err != nil {
		logger.Errorf("storing draft: %s", err)
		http.Error(w, `{"error":"Error storing draft"}`, http.StatusInternalServerError)
		return
	}

	writeDraftResponse(w, draftID, draft)
}

func (s WebServer) draftGetHandler(w http.ResponseWriter, req *http.Request) {
	draftID := req.URL.Query().Get("draft_id")
	if draftID == "" {
		http.Error(w, `{"error":"Pass draft_id in request"}`, http.StatusBadRequest)
		return
	}

	draft, err := s.readDraft(req, draftID)
	if err == redis.ErrNotFound {
		http.Error(w, `{"error":"Draft not found or expired"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Errorf("reading draft: %s", err)
		http.Error(w, `{"error":"Error reading draft"}`, http.StatusInternalServerError)
		return
	}

	writeDraftResponse(w, draftID, draft)
}

func (s WebServer) draftDeleteHandler(w http.ResponseWriter, req *http.Request) {
	draftID := req.URL.Query().Get("draft_id")
	if draftID == "" {
		http.Error(w, `{"error":"Pass draft_id in request"}`, http.StatusBadRequest)
		return
	}

	if err := s.serverClients.Redis.DeleteDraft(draftID, req.Context()); err != nil {
		logger.Errorf("deleting draft: %s", err)
		http.Error(w, `{"error":"Error deleting draft"}`, http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, `{"status":"success"}`)
}

// draftCommandHandler applies one wizard action to a draft. Actions are
// serialized per draft by read-modify-write against redis; the draft model
// itself is single-writer.
func (s WebServer) draftCommandHandler(w http.ResponseWriter, req *http.Request) {
	draftID := req.URL.Query().Get("draft_id")
	if draftID == "" {
		http.Error(w, `{"error":"Pass draft_id in request"}`, http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, `{"error":"Error reading request body"}`, http.StatusBadRequest)
		return
	}

	action, err := profile.DecodeAction(body)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
		return
	}

	draft, err := s.readDraft(req, draftID)
	if err == redis.ErrNotFound {
		http.Error(w, `{"error":"Draft not found or expired"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Errorf("reading draft: %s", err)
		http.Error(w, `{"error":"Error reading draft"}`, http.StatusInternalServerError)
		return
	}

	if err := profile.Apply(draft, action); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusUnprocessableEntity)
		return
	}

	if err := s.writeDraft(req, draftID, draft); err != nil {
		logger.Errorf("storing draft: %s", err)
		http.Error(w, `{"error":"Error storing draft"}`, http.StatusInternalServerError)
		return
	}

	writeDraftResponse(w, draftID, draft)
}

// draftSubmitHandler assembles the create payload from the draft and posts
// it upstream. The draft survives a failed submit so the user can retry.
func (s WebServer) draftSubmitHandler(w http.ResponseWriter, req *http.Request) {
	draftID := req.URL.Query().Get("draft_id")
	if draftID == "" {
		http.Error(w, `{"error":"Pass draft_id in request"}`, http.StatusBadRequest)
		return
	}

	draft, err := s.readDraft(req, draftID)
	if err == redis.ErrNotFound {
		http.Error(w, `{"error":"Draft not found or expired"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Errorf("reading draft: %s", err)
		http.Error(w, `{"error":"Error reading draft"}`, http.StatusInternalServerError)
		return
	}

	if draft.Step != profile.SubmitStep {
		http.Error(w, `{"error":"Draft has not reached the final step"}`, http.StatusUnprocessableEntity)
		return
	}

	payload := profile.BuildFullCreatePayload(draft)
	if err := s.serverClients.SensorAPI.AddProfile(req.Context(), payload); err != nil {
		logger.Errorf("submitting alarm profile: %s", err)
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadGateway)
		return
	}

	if err := s.serverClients.Redis.DeleteDraft(draftID, req.Context()); err != nil {
		logger.Errorf("deleting draft after submit: %s", err)
	}

	fmt.Fprintf(w, `{"status":"success"}`)
}

func (s WebServer) sensorExportHandler(w http.ResponseWriter, req *http.Request) {
	groupID := req.URL.Query().Get("group_id")
	if groupID == "" {
		http.Error(w, `{"error":"Pass group_id in request"}`, http.StatusBadRequest)
		return
	}

	var all []config.Sensor
	page := 1
	for {
		sensors, numPages, err := s.serverClients.SensorAPI.ListSensors(req.Context(), groupID, page, "")
		if err != nil {
			logger.Errorf("listing sensors for export: %s", err)
			http.Error(w, `{"error":"Error getting sensors"}`, http.StatusBadGateway)
			return
		}
		all = append(all, sensors...)
		if page >= numPages {
			break
		}
		page++
	}

	workbook, err := export.BuildSensorWorkbook(all)
	if err != nil {
		logger.Errorf("building sensor workbook: %s", err)
		http.Error(w, `{"error":"Error building export"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="sensors.xlsx"`)
	w.Write(workbook)
}

func (s WebServer) readDraft(req *http.Request, draftID string) (*profile.Draft, error) {
	stored, err := s.serverClients.Redis.ReadDraft(draftID, req.Context())
	if err != nil {
		return nil, err
	}

	decrypted, err := s.serverClients.CryptoUtil.Decrypt([]byte(stored))
	if err != nil {
		return nil, fmt.Errorf("decrypting draft: %w", err)
	}

	draft := &profile.Draft{}
	if err := json.Unmarshal(decrypted, draft); err != nil {
		return nil, fmt.Errorf("unmarshalling draft: %w", err)
	}

	return draft, nil
}

func (s WebServer) writeDraft(req *http.Request, draftID string, draft *profile.Draft) error {
	j, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshalling draft: %w", err)
	}

	encrypted, err := s.serverClients.CryptoUtil.Encrypt(j)
	if err != nil {
		return fmt.Errorf("encrypting draft: %w", err)
	}

	return s.serverClients.Redis.WriteDraft(draftID, string(encrypted), req.Context())
}

func writeDraftResponse(w http.ResponseWriter, draftID string, draft *profile.Draft) {
	j, _ := json.Marshal(draft)
	receivers, _ := json.Marshal(draft.ReceiverSummaries())
	fmt.Fprintf(w, `{"draft_id":%q,"draft":%s,"step_valid":%t,"receivers":%s}`,
		draftID, string(j), draft.IsValidForStep(draft.Step), string(receivers))
}

// spaHandler implements the http.Handler interface, so we can use it
// to respond to HTTP requests. The path to the static directory and
// path to the index file within that static directory are used to
// serve the SPA in the given static directory.
type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// get the absolute path to prevent directory traversal
	path, err := filepath.Abs(r.URL.Path)
	if err != nil {
		// if we failed to get the absolute path respond with a 400 bad request
		// and stop
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// prepend the path with the path to the static directory
	path = filepath.Join(h.staticPath, path)

	// check whether a file exists at the given path
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		// file does not exist, serve index.html
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	} else if err != nil {
		// if we got an error (that wasn't that the file doesn't exist) stating the
		// file, return a 500 internal server error and stop
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// otherwise, use http.FileServer to serve the static dir
	http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
}

// issueSession issues a cookie session after successful Google login
func issueSession(serverConfig config.ServerConfig) http.Handler {
	fn := func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		googleUser, err := google.UserFromContext(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !strings.Contains(serverConfig.GoogleConfig.AuthorizedUsers, googleUser.Email) {
			http.Redirect(w, req, unauthPath, http.StatusFound)
			return
		}
		session := sessionStore.New(sessionName)
		session.Values[sessionUserKey] = googleUser.Id
		session.Values["user-email"] = googleUser.Email
		session.Save(w)
		http.Redirect(w, req, "/", http.StatusFound)
	}
	return http.HandlerFunc(fn)
}

func logoutHandler(w http.ResponseWriter, req *http.Request) {
	sessionStore.Destroy(w, sessionName)
	http.Redirect(w, req, unauthPath, http.StatusFound)
}

func unauthHandler(w http.ResponseWriter, req *http.Request) {
	http.ServeFile(w, req, filepath.Join("frontend/build", "unauth.html"))
}

// requireLogin redirects unauthenticated users to the login route.
func requireLogin(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, req *http.Request) {
		if !isAuthenticated(req) {
			http.Redirect(w, req, "/google/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, req)
	}
	return http.HandlerFunc(fn)
}

// isAuthenticated returns true if the user has a signed session cookie.
func isAuthenticated(req *http.Request) bool {
	if _, err := sessionStore.Get(req, sessionName); err == nil {
		return true
	}

	if validAPIKey(req.Header.Get("api-key")) {
		return true
	}

	return false
}

func healthHandler(w http.ResponseWriter, req *http.Request) {
	apiKey := req.Header.Get("api-key")

	if !validAPIKey(apiKey) {
		http.Error(w, `{"error":"unauthenticated"}`, http.StatusUnauthorized)
		return
	}

	fmt.Fprintf(w, `{"version":"%s"}`, version)
}

func validAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}
	allowed := false
	for _, key := range allowedAPIKeys {
		if key == apiKey {
			allowed = true
		}
	}
	return allowed
}
