package services

import "github.com/redis/go-redis/v9"

var (
	fxService         *FXService
	ledgerService     *LedgerService
	balanceService    *BalanceService
	settlementService *SettlementService
)

// Setup wires the service singletons. Called once from main after the
// database (and optionally Redis) connections are established.
func Setup(store Store, provider RateProvider, rdb *redis.Client) {
	fxService = NewFXService(store, provider, rdb)
	ledgerService = NewLedgerService(store, fxService)
	balanceService = NewBalanceService(store)
	settlementService = NewSettlementService(store)
}

func FX() *FXService { return fxService }

func Ledger() *LedgerService { return ledgerService }

func Balances() *BalanceService { return balanceService }

func Settlements() *SettlementService { return settlementService }
