package domain

import (
	"time"

	"github.com/google/uuid"
)

type ActivityType string

const (
	ActivityConnected         ActivityType = "connected"
	ActivityConnectFailed     ActivityType = "connect_failed"
	ActivityDisconnected      ActivityType = "disconnected"
	ActivityPsbtSigned        ActivityType = "psbt_signed"
	ActivityPsbtSignFailed    ActivityType = "psbt_sign_failed"
	ActivityMessageSigned     ActivityType = "message_signed"
	ActivityMessageSignFailed ActivityType = "message_sign_failed"
)

// Activity records a settled state transition of the wallet service.
type Activity struct {
	ID        string
	Type      ActivityType
	Wallet    WalletName
	Network   Network
	Address   string
	Broadcast bool
	ErrorKind string
	Error     string
	Timestamp int64
}

func NewActivity(
	activityType ActivityType, wallet WalletName, network Network,
) Activity {
	return Activity{
		ID:        uuid.New().String(),
		Type:      activityType,
		Wallet:    wallet,
		Network:   network,
		Timestamp: time.Now().Unix(),
	}
}

// WithError records the kind and message of the given error.
func (a Activity) WithError(err error) Activity {
	if err != nil {
		a.ErrorKind = KindOf(err)
		a.Error = err.Error()
	}
	return a
}

func (a Activity) Failed() bool {
	return a.ErrorKind != "" || a.Error != ""
}
