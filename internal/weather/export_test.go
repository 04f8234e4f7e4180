package weather

import "time"

// SetNow pins the service clock so external tests control what "today" means.
func (s *Service) SetNow(now func() time.Time) { s.now = now }
