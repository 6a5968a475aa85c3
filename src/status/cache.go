package status

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultCapacity = 50

// MarketRow is the per-symbol display row rebuilt by the engine every tick.
type MarketRow struct {
	Price       float64 `json:"price"`
	RSI         float64 `json:"rsi"`
	LowerBand   float64 `json:"lower_band"`
	UpperBand   float64 `json:"upper_band"`
	StatusLabel string  `json:"status"`
	WalletLabel string  `json:"wallet_status"`
	ActionLabel string  `json:"action"`
	PnlLabel    string  `json:"pnl"`
	Divergent   bool    `json:"divergent,omitempty"`
	Dust        bool    `json:"dust,omitempty"`
}

// Notification is one engine event surfaced to the frontend queue.
type Notification struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"` // "success", "info", "warning", "error"
	Message string    `json:"msg"`
	Time    time.Time `json:"time"`
}

// Snapshot is an immutable copy of the cache contents handed to readers.
type Snapshot struct {
	Running       bool                 `json:"running"`
	Connected     bool                 `json:"connected"`
	Balance       float64              `json:"balance"`
	TotalInvested float64              `json:"total_invested"`
	WalletValue   float64              `json:"total_wallet_value"`
	USDBRLRate    float64              `json:"usd_brl_rate"`
	Market        map[string]MarketRow `json:"market_data"`
	Logs          []string             `json:"logs"`
	Notifications []Notification       `json:"notifications"`
	LoopHealth    map[string]time.Time `json:"loop_health"`
}

// Cache is the single point of truth read by the status API and the chat
// responder. The engine loop is the sole writer of market, balance and totals;
// Log, PushNotification and Heartbeat may be called from any supervised loop.
// Readers always receive copies.
type Cache struct {
	mu sync.RWMutex

	capacity      int
	running       bool
	connected     bool
	balance       float64
	totalInvested float64
	walletValue   float64
	usdBRLRate    float64
	market        map[string]MarketRow
	logs          []string
	notifications []Notification
	loopHealth    map[string]time.Time

	now func() time.Time
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity:   capacity,
		market:     make(map[string]MarketRow),
		loopHealth: make(map[string]time.Time),
		now:        time.Now,
	}
}

func (c *Cache) SetRunning(running bool) {
	c.mu.Lock()
	c.running = running
	c.mu.Unlock()
}

// SetConnected updates connectivity and reports whether the value changed, so
// the engine can emit lost/restored events only on edges.
func (c *Cache) SetConnected(connected bool) (changed bool) {
	c.mu.Lock()
	changed = c.connected != connected
	c.connected = connected
	c.mu.Unlock()
	return changed
}

func (c *Cache) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Cache) SetBalance(balance float64) {
	c.mu.Lock()
	c.balance = balance
	c.mu.Unlock()
}

func (c *Cache) Balance() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balance
}

func (c *Cache) SetTotals(invested, walletValue float64) {
	c.mu.Lock()
	c.totalInvested = invested
	c.walletValue = walletValue
	c.mu.Unlock()
}

func (c *Cache) SetUSDBRLRate(rate float64) {
	c.mu.Lock()
	c.usdBRLRate = rate
	c.mu.Unlock()
}

func (c *Cache) SetMarketRow(symbol string, row MarketRow) {
	c.mu.Lock()
	c.market[symbol] = row
	c.mu.Unlock()
}

// DropMarketRow removes symbols no longer configured.
func (c *Cache) DropMarketRow(symbol string) {
	c.mu.Lock()
	delete(c.market, symbol)
	c.mu.Unlock()
}

// Log prepends a timestamped line to the bounded recent-log ring.
func (c *Cache) Log(message string) {
	c.mu.Lock()
	line := "[" + c.now().Format("15:04:05") + "] " + message
	c.logs = append([]string{line}, c.logs...)
	if len(c.logs) > c.capacity {
		c.logs = c.logs[:c.capacity]
	}
	c.mu.Unlock()
}

// RecentLogs returns up to n recent log lines, newest first.
func (c *Cache) RecentLogs(n int) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 || n > len(c.logs) {
		n = len(c.logs)
	}
	out := make([]string, n)
	copy(out, c.logs[:n])
	return out
}

// PushNotification adds an event to the bounded most-recent-first queue.
func (c *Cache) PushNotification(kind, message string) Notification {
	n := Notification{
		ID:      uuid.NewString(),
		Type:    kind,
		Message: message,
		Time:    c.now(),
	}

	c.mu.Lock()
	c.notifications = append([]Notification{n}, c.notifications...)
	if len(c.notifications) > c.capacity {
		c.notifications = c.notifications[:c.capacity]
	}
	c.mu.Unlock()

	return n
}

// Heartbeat records liveness for a supervised loop.
func (c *Cache) Heartbeat(loop string) {
	c.mu.Lock()
	c.loopHealth[loop] = c.now()
	c.mu.Unlock()
}

// GetSnapshot returns a deep copy of the current state.
func (c *Cache) GetSnapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	market := make(map[string]MarketRow, len(c.market))
	for k, v := range c.market {
		market[k] = v
	}

	logs := make([]string, len(c.logs))
	copy(logs, c.logs)

	notifications := make([]Notification, len(c.notifications))
	copy(notifications, c.notifications)

	health := make(map[string]time.Time, len(c.loopHealth))
	for k, v := range c.loopHealth {
		health[k] = v
	}

	return Snapshot{
		Running:       c.running,
		Connected:     c.connected,
		Balance:       c.balance,
		TotalInvested: c.totalInvested,
		WalletValue:   c.walletValue,
		USDBRLRate:    c.usdBRLRate,
		Market:        market,
		Logs:          logs,
		Notifications: notifications,
		LoopHealth:    health,
	}
}
