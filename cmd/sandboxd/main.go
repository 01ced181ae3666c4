// Command sandboxd is a local stand-in for the remote API. It implements the
// installation, device, and session endpoints plus a signed echo endpoint,
// and can expire sessions after a fixed number of requests so the reactive
// refresh path can be exercised end to end.
package main

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"signet/internal/crypto"
)

const (
	headerAuth            = "X-Signet-Auth"
	headerSignature       = "X-Signet-Signature"
	headerServerSignature = "X-Signet-Server-Signature"
)

type installation struct {
	clientPub *rsa.PublicKey
}

type session struct {
	userID    string
	remaining int // requests before the session expires; <0 means never
}

type server struct {
	apiKey      string
	expireAfter int
	serverKey   *rsa.PrivateKey
	serverPub   string

	mu            sync.Mutex
	installations map[string]*installation
	sessions      map[string]*session
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	apiKey := flag.String("api-key", "sandbox-key", "the API key to accept")
	expireAfter := flag.Int("expire-after", -1, "expire each session after N requests (-1: never)")
	flag.Parse()

	key, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatal(err)
	}
	pubPEM, err := crypto.MarshalPublicPEM(&key.PublicKey)
	if err != nil {
		log.Fatal(err)
	}

	s := &server{
		apiKey:        *apiKey,
		expireAfter:   *expireAfter,
		serverKey:     key,
		serverPub:     pubPEM,
		installations: make(map[string]*installation),
		sessions:      make(map[string]*session),
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Post("/v1/installation", s.handleInstallation)
	r.Post("/v1/device", s.handleDevice)
	r.Post("/v1/session", s.handleSession)
	r.Post("/v1/echo", s.handleEcho)

	log.Println("sandboxd listening on", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}

func (s *server) handleInstallation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		APIKey          string `json:"api_key"`
		ClientPublicKey string `json:"client_public_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.APIKey != s.apiKey {
		http.Error(w, "unknown api key", http.StatusUnauthorized)
		return
	}
	pub, err := crypto.ParsePublicPEM(in.ClientPublicKey)
	if err != nil {
		http.Error(w, "bad client public key", http.StatusBadRequest)
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.installations[token] = &installation{clientPub: pub}
	s.mu.Unlock()

	writeJSON(w, map[string]string{
		"token":             token,
		"server_public_key": s.serverPub,
	})
}

func (s *server) handleDevice(w http.ResponseWriter, r *http.Request) {
	inst := s.installationFor(r)
	if inst == nil {
		http.Error(w, "unknown installation token", http.StatusUnauthorized)
		return
	}
	var in struct {
		Secret      string `json:"secret"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if in.Secret != s.apiKey {
		http.Error(w, "unknown api key", http.StatusUnauthorized)
		return
	}
	log.Println("registered device:", in.Description)
	writeJSON(w, map[string]string{"id": uuid.NewString()})
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	inst := s.installationFor(r)
	if inst == nil {
		http.Error(w, "unknown installation token", http.StatusUnauthorized)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !verify(inst.clientPub, body, r.Header.Get(headerSignature)) {
		http.Error(w, "bad signature", http.StatusBadRequest)
		return
	}
	var in struct {
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(body, &in); err != nil || in.Secret != s.apiKey {
		http.Error(w, "unknown api key", http.StatusUnauthorized)
		return
	}

	token := uuid.NewString()
	userID := "user-" + token[:8]
	s.mu.Lock()
	s.sessions[token] = &session{userID: userID, remaining: s.expireAfter}
	s.mu.Unlock()

	writeJSON(w, map[string]string{"token": token, "user_id": userID})
}

func (s *server) handleEcho(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(headerAuth)
	s.mu.Lock()
	sess := s.sessions[token]
	if sess != nil && sess.remaining == 0 {
		delete(s.sessions, token)
		sess = nil
	}
	if sess != nil && sess.remaining > 0 {
		sess.remaining--
	}
	s.mu.Unlock()
	if sess == nil {
		http.Error(w, "session expired", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, _ := json.Marshal(map[string]string{
		"echo": string(body),
		"user": sess.userID,
	})
	sig, err := crypto.SignSHA256(s.serverKey, resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set(headerServerSignature, base64.StdEncoding.EncodeToString(sig))
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, "%s", resp)
}

func (s *server) installationFor(r *http.Request) *installation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installations[r.Header.Get(headerAuth)]
}

func verify(pub *rsa.PublicKey, body []byte, sigB64 string) bool {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false
	}
	return crypto.VerifySHA256(pub, body, sig) == nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
