package interfaces

// Service interface defines the methods that every kind of interface exposing
// the wallet adapter, whether HTTP, websocket or whatever must be compliant
// with.
type Service interface {
	Start() error
	Stop()
}
