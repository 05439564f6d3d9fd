package out

// KeyedLocker hands out at most one claim per key. Callers must invoke release exactly once.
type KeyedLocker interface {
	TryLock(key string) (release func(), acquired bool)
}
