//go:build integration

package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isd-sgcu/cucm25-backend/internal/model"
	"github.com/isd-sgcu/cucm25-backend/internal/service"
)

func TestConcurrentRedeemGrantsRewardExactlyOnce(t *testing.T) {
	env := getEnv(t)

	admin := seedPrincipal(t, model.RoleAdmin)
	participant := seedPrincipal(t, model.RoleParticipant)
	code := createCode(t, admin, model.TargetAll, 77, time.Now().Add(time.Hour))

	const workers = 25
	var (
		wg              sync.WaitGroup
		successCount    int64
		alreadyRedeemed int64
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.codeSvc.Redeem(context.Background(), participant, code.CodeString)
			switch {
			case err == nil:
				atomic.AddInt64(&successCount, 1)
			case errors.Is(err, service.ErrAlreadyRedeemed):
				atomic.AddInt64(&alreadyRedeemed, 1)
			default:
				t.Errorf("unexpected redeem error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successCount != 1 {
		t.Fatalf("expected exactly one successful redemption, got %d", successCount)
	}
	if alreadyRedeemed != workers-1 {
		t.Fatalf("expected %d already-redeemed rejections, got %d", workers-1, alreadyRedeemed)
	}

	wallet := walletOf(t, participant.ID)
	if wallet.CoinBalance != 77 {
		t.Fatalf("expected the reward credited once, balance %d", wallet.CoinBalance)
	}
	if wallet.CumulativeCoin != 77 {
		t.Fatalf("expected cumulative coin 77, got %d", wallet.CumulativeCoin)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	env := getEnv(t)

	user := seedPrincipal(t, model.RoleParticipant)
	fundWallet(t, user.ID, 100)

	const workers = 50
	var (
		wg           sync.WaitGroup
		successCount int64
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.walletSvc.Debit(context.Background(), user.ID, 10, model.TransactionAdminAdjustment)
			switch {
			case err == nil:
				atomic.AddInt64(&successCount, 1)
			case errors.Is(err, service.ErrInsufficientFunds):
			default:
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successCount != 10 {
		t.Fatalf("expected exactly 10 debits of 10 against a balance of 100, got %d", successCount)
	}

	wallet := walletOf(t, user.ID)
	if wallet.CoinBalance != 0 {
		t.Fatalf("expected balance drained to zero, got %d", wallet.CoinBalance)
	}
	if wallet.CumulativeCoin != 100 {
		t.Fatalf("debits must not touch cumulative coin, got %d", wallet.CumulativeCoin)
	}
}

func TestConcurrentGiftSendsRespectQuota(t *testing.T) {
	env := getEnv(t)

	sender := seedPrincipal(t, model.RoleParticipant)
	recipient := seedPrincipal(t, model.RoleParticipant)
	fundWallet(t, sender.ID, 10000)

	amount := int64(3)
	const workers = 20
	var (
		wg            sync.WaitGroup
		successCount  int64
		quotaRejected int64
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.giftSvc.Send(context.Background(), sender, service.SendGiftInput{
				RecipientUsername: recipient.Username,
				Amount:            &amount,
			})
			switch {
			case err == nil:
				atomic.AddInt64(&successCount, 1)
			case errors.Is(err, service.ErrQuotaExceeded):
				atomic.AddInt64(&quotaRejected, 1)
			default:
				t.Errorf("unexpected send error: %v", err)
			}
		}()
	}
	wg.Wait()

	// The seeded hourly quota is 5.
	if successCount != 5 {
		t.Fatalf("expected exactly 5 sends within the quota, got %d", successCount)
	}
	if quotaRejected != workers-5 {
		t.Fatalf("expected %d quota rejections, got %d", workers-5, quotaRejected)
	}

	senderWallet := walletOf(t, sender.ID)
	recipientWallet := walletOf(t, recipient.ID)
	sent := successCount * amount
	if senderWallet.CoinBalance != 10000-sent {
		t.Fatalf("sender balance %d, expected %d", senderWallet.CoinBalance, 10000-sent)
	}
	if recipientWallet.CoinBalance != sent {
		t.Fatalf("recipient balance %d, expected %d", recipientWallet.CoinBalance, sent)
	}
	// Coins moved, none created or destroyed.
	if senderWallet.CoinBalance+recipientWallet.CoinBalance != 10000 {
		t.Fatalf("transfer leaked coins: %d + %d != 10000", senderWallet.CoinBalance, recipientWallet.CoinBalance)
	}
}

func TestGiftQuotaRearmsAfterWindow(t *testing.T) {
	env := getEnv(t)

	sender := seedPrincipal(t, model.RoleParticipant)
	recipient := seedPrincipal(t, model.RoleParticipant)
	fundWallet(t, sender.ID, 1000)

	// Exhaust the allowance and age the window past an hour.
	if _, err := env.pool.Exec(
		context.Background(),
		`UPDATE wallets SET gift_sends_remaining = 0, last_gift_reset = NOW() - INTERVAL '2 hours' WHERE user_id = $1`,
		sender.ID,
	); err != nil {
		t.Fatalf("age quota window: %v", err)
	}

	amount := int64(1)
	result, err := env.giftSvc.Send(context.Background(), sender, service.SendGiftInput{
		RecipientUsername: recipient.Username,
		Amount:            &amount,
	})
	if err != nil {
		t.Fatalf("send after window should succeed, got %v", err)
	}
	if result.GiftSendsRemaining != 4 {
		t.Fatalf("expected a re-armed quota of 5 minus this send, got %d remaining", result.GiftSendsRemaining)
	}
}

func TestGiftVerificationMismatchMovesNothing(t *testing.T) {
	env := getEnv(t)

	sender := seedPrincipal(t, model.RoleParticipant)
	recipient := seedPrincipal(t, model.RoleParticipant)
	fundWallet(t, sender.ID, 500)

	_, err := env.giftSvc.Send(context.Background(), sender, service.SendGiftInput{
		RecipientUsername: recipient.Username,
		Verification: &service.RecipientVerification{
			Nickname:  "WrongNick",
			Firstname: "First",
			Lastname:  "Last",
		},
	})

	var verr *service.VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected verification error, got %v", err)
	}

	if balance := walletOf(t, sender.ID).CoinBalance; balance != 500 {
		t.Fatalf("failed verification must not move coins, sender balance %d", balance)
	}
	if balance := walletOf(t, recipient.ID).CoinBalance; balance != 0 {
		t.Fatalf("failed verification must not move coins, recipient balance %d", balance)
	}
}

func TestExpiredCodeNeverPays(t *testing.T) {
	env := getEnv(t)

	admin := seedPrincipal(t, model.RoleAdmin)
	participant := seedPrincipal(t, model.RoleParticipant)
	code := createCode(t, admin, model.TargetAll, 10, time.Now().Add(200*time.Millisecond))

	time.Sleep(300 * time.Millisecond)

	_, err := env.codeSvc.Redeem(context.Background(), participant, code.CodeString)
	if !errors.Is(err, service.ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
	if balance := walletOf(t, participant.ID).CoinBalance; balance != 0 {
		t.Fatalf("expired code must not pay out, balance %d", balance)
	}
}

func TestTicketPurchaseSnapshotsPrice(t *testing.T) {
	env := getEnv(t)

	buyer := seedPrincipal(t, model.RoleParticipant)
	fundWallet(t, buyer.ID, 100)

	eventName := uniqueName("event")
	purchase, err := env.ticketSvc.Buy(context.Background(), buyer, service.BuyTicketsInput{
		EventName: &eventName,
		Count:     3,
	})
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	if purchase.TicketPrice != 10 || purchase.TotalPrice != 30 {
		t.Fatalf("expected price snapshot 10 and total 30, got %d/%d", purchase.TicketPrice, purchase.TotalPrice)
	}
	if balance := walletOf(t, buyer.ID).CoinBalance; balance != 70 {
		t.Fatalf("expected balance 70 after purchase, got %d", balance)
	}

	wallet := walletOf(t, buyer.ID)
	if wallet.CumulativeCoin != 100 {
		t.Fatalf("a purchase must not change cumulative coin, got %d", wallet.CumulativeCoin)
	}
}

func TestBulkAdjustRollsBackAsOneUnit(t *testing.T) {
	env := getEnv(t)

	funded := seedPrincipal(t, model.RoleParticipant)
	broke := seedPrincipal(t, model.RoleParticipant)
	fundWallet(t, funded.ID, 100)

	err := env.walletSvc.BulkAdjust(context.Background(), []service.Adjustment{
		{UserID: funded.ID, Amount: 50},
		{UserID: broke.ID, Amount: -10},
	}, true)
	if !errors.Is(err, service.ErrInsufficientFunds) {
		t.Fatalf("expected the short balance to fail the batch, got %v", err)
	}

	if balance := walletOf(t, funded.ID).CoinBalance; balance != 100 {
		t.Fatalf("failed batch must roll back completely, balance %d", balance)
	}
}

func TestLeaderboardRanksByCumulativeCoin(t *testing.T) {
	env := getEnv(t)

	top := seedPrincipal(t, model.RoleParticipant)
	mid := seedPrincipal(t, model.RoleParticipant)
	fundWallet(t, top.ID, 900000)
	fundWallet(t, mid.ID, 800000)

	// Spending must not move anyone down the board.
	if _, err := env.walletSvc.Debit(context.Background(), top.ID, 899999, model.TransactionAdminAdjustment); err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	entries, err := env.leaderboardSvc.Top(context.Background(), 100)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}

	topRank, midRank := 0, 0
	for _, entry := range entries {
		switch entry.UserID {
		case top.ID:
			topRank = entry.Rank
		case mid.ID:
			midRank = entry.Rank
		}
	}
	if topRank == 0 || midRank == 0 {
		t.Fatalf("seeded users missing from leaderboard (ranks %d, %d)", topRank, midRank)
	}
	if topRank >= midRank {
		t.Fatalf("cumulative 900000 must rank above 800000, got ranks %d and %d", topRank, midRank)
	}
}
