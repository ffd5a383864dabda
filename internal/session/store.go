package session

import "sync"

// Store owns one UserSession per user id. The top-level map is the only
// shared mutable structure in the system; mutations of a single session are
// serialized by a per-session mutex so unrelated users never block each
// other.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*locked

	defaultOCRLang string
}

type locked struct {
	mu   sync.Mutex
	sess *UserSession
}

// NewStore creates an empty session store. defaultOCRLang is the baseline
// recognition language new sessions start with.
func NewStore(defaultOCRLang string) *Store {
	if defaultOCRLang == "" {
		defaultOCRLang = "ukr"
	}
	return &Store{
		sessions:       make(map[int64]*locked),
		defaultOCRLang: defaultOCRLang,
	}
}

func (st *Store) getOrCreate(userID int64) *locked {
	st.mu.RLock()
	l, ok := st.sessions[userID]
	st.mu.RUnlock()
	if ok {
		return l
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if l, ok = st.sessions[userID]; ok {
		return l
	}
	l = &locked{sess: newUserSession(userID, st.defaultOCRLang)}
	st.sessions[userID] = l
	return l
}

// Update applies mutator to the user's session, creating it on first
// contact. Mutations for the same user are atomic with respect to each
// other; different users proceed independently.
func (st *Store) Update(userID int64, mutator func(*UserSession)) {
	l := st.getOrCreate(userID)
	l.mu.Lock()
	defer l.mu.Unlock()
	mutator(l.sess)
}

// View is Update for read-only access; the callback must not retain the
// session or its slices past the call.
func (st *Store) View(userID int64, fn func(*UserSession)) {
	st.Update(userID, fn)
}

// Len returns the number of sessions created so far.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// ActiveStagingDirs reports the staging directories currently owned by live
// sessions, so background sweeps can tell orphans from in-flight uploads.
func (st *Store) ActiveStagingDirs() []string {
	st.mu.RLock()
	all := make([]*locked, 0, len(st.sessions))
	for _, l := range st.sessions {
		all = append(all, l)
	}
	st.mu.RUnlock()

	var dirs []string
	for _, l := range all {
		l.mu.Lock()
		if l.sess.StagingDir != "" {
			dirs = append(dirs, l.sess.StagingDir)
		}
		l.mu.Unlock()
	}
	return dirs
}
