package httpinterface

import (
	"github.com/tdex-network/btc-wallet-adapter/internal/core/application"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
)

type connectRequest struct {
	Wallet  string `json:"wallet"`
	Network string `json:"network"`
}

type inputToSign struct {
	Address        string `json:"address"`
	SigningIndexes []int  `json:"signingIndexes"`
	SigHash        *int   `json:"sigHash,omitempty"`
}

type signPsbtRequest struct {
	Psbt         string        `json:"psbt"`
	InputsToSign []inputToSign `json:"inputsToSign"`
	Broadcast    bool          `json:"broadcast"`
}

func (r signPsbtRequest) toDomain() domain.UnsignedPsbt {
	inputs := make([]domain.InputToSign, 0, len(r.InputsToSign))
	for _, in := range r.InputsToSign {
		inputs = append(inputs, domain.InputToSign{
			Address:        in.Address,
			SigningIndexes: in.SigningIndexes,
			SigHash:        in.SigHash,
		})
	}
	return domain.UnsignedPsbt{Psbt: r.Psbt, InputsToSign: inputs}
}

type signPsbtResponse struct {
	Psbt string `json:"psbt"`
}

type signMessageRequest struct {
	Message string `json:"message"`
	Scheme  string `json:"scheme"`
}

type signMessageResponse struct {
	Signature string `json:"signature"`
}

type providerInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Detected    bool   `json:"detected"`
}

type address struct {
	Address     string `json:"address"`
	PublicKey   string `json:"publicKey"`
	Purpose     string `json:"purpose"`
	AddressType string `json:"addressType"`
	WalletType  string `json:"walletType"`
}

type walletInfo struct {
	Name            string    `json:"name"`
	Network         string    `json:"network"`
	OrdinalsAddress string    `json:"ordinalsAddress"`
	PaymentAddress  string    `json:"paymentAddress"`
	Addresses       []address `json:"addresses"`
}

type stateResponse struct {
	Connected bool        `json:"connected"`
	Status    string      `json:"status"`
	Wallet    *walletInfo `json:"wallet"`
}

func toStateResponse(state application.State) stateResponse {
	resp := stateResponse{
		Connected: state.Connected,
		Status:    string(state.Status),
	}
	if w := state.Wallet; w != nil {
		addresses := make([]address, 0)
		for _, a := range w.Addresses() {
			addresses = append(addresses, address{
				Address:     a.Address,
				PublicKey:   a.PublicKey,
				Purpose:     string(a.Purpose),
				AddressType: a.AddressType,
				WalletType:  string(a.WalletType),
			})
		}
		resp.Wallet = &walletInfo{
			Name:            w.WalletName().String(),
			Network:         w.Network().String(),
			OrdinalsAddress: w.OrdinalsAddress().Address,
			PaymentAddress:  w.PaymentAddress().Address,
			Addresses:       addresses,
		}
	}
	return resp
}

type activity struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Wallet    string `json:"wallet"`
	Network   string `json:"network"`
	Address   string `json:"address,omitempty"`
	Broadcast bool   `json:"broadcast,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func toActivity(a domain.Activity) activity {
	return activity{
		ID:        a.ID,
		Type:      string(a.Type),
		Wallet:    a.Wallet.String(),
		Network:   a.Network.String(),
		Address:   a.Address,
		Broadcast: a.Broadcast,
		ErrorKind: a.ErrorKind,
		Error:     a.Error,
		Timestamp: a.Timestamp,
	}
}

type activityResponse struct {
	Activities []activity `json:"activities"`
}

type event struct {
	Activity *activity     `json:"activity,omitempty"`
	State    stateResponse `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
