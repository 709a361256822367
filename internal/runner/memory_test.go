package runner

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_Disabled(t *testing.T) {
	ml := NewMemoryLimiter(0)

	if ml.IsEnabled() {
		t.Error("лимит 0 должен отключать ограничение")
	}

	release, err := ml.Acquire(context.Background(), 1<<30)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()
}

func TestMemoryLimiter_AcquireRelease(t *testing.T) {
	ml := NewMemoryLimiter(10) // 10 MB

	// Резерв = 2x размера файла
	release, err := ml.Acquire(context.Background(), 2*1024*1024)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if got := ml.CurrentUsage(); got != 4*1024*1024 {
		t.Errorf("CurrentUsage = %d, ожидалось 4 MiB", got)
	}

	release()

	if got := ml.CurrentUsage(); got != 0 {
		t.Errorf("после release CurrentUsage = %d, ожидалось 0", got)
	}
}

func TestMemoryLimiter_OversizedFile(t *testing.T) {
	ml := NewMemoryLimiter(1) // 1 MB

	// Файл крупнее лимита всё равно должен пройти (резерв урезается до лимита)
	release, err := ml.Acquire(context.Background(), 100*1024*1024)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()
}

func TestMemoryLimiter_BlocksUntilRelease(t *testing.T) {
	ml := NewMemoryLimiter(4)

	release1, err := ml.Acquire(context.Background(), 2*1024*1024)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		release2, err := ml.Acquire(context.Background(), 2*1024*1024)
		if err == nil {
			release2()
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("второй Acquire прошёл до освобождения памяти")
	case <-time.After(50 * time.Millisecond):
	}

	release1()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("второй Acquire не разблокировался после release")
	}
}

func TestMemoryLimiter_ContextCancel(t *testing.T) {
	ml := NewMemoryLimiter(2)

	release, err := ml.Acquire(context.Background(), 1024*1024)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := ml.Acquire(ctx, 1024*1024); err == nil {
		t.Error("Acquire должен вернуть ошибку после отмены контекста")
	}
}
