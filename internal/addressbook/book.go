// Package addressbook хранит сохранённые адреса доставки, адрес по умолчанию и текущий выбранный
// адрес. Данные разделены по пространствам имён идентичности.
package addressbook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/agroshop-session/internal/validation"
)

// ErrNamespaceChanged возвращается, если операция адресована пространству имён, которое уже
// не загружено в книгу.
var ErrNamespaceChanged = errors.New("address book namespace changed")

// Storage описывает постоянное хранилище адресов.
type Storage interface {
	Addresses(ctx context.Context, namespace string) ([]string, error)
	SaveAddresses(ctx context.Context, namespace string, list []string) error
	DefaultAddress(ctx context.Context, namespace string) (string, error)
	SaveDefaultAddress(ctx context.Context, namespace, addr string) error
}

// View снимок адресной книги.
type View struct {
	Namespace string   `json:"namespace"`
	Addresses []string `json:"addresses"`
	Default   string   `json:"default"`
	Current   string   `json:"current"`
}

// Book адресная книга активной идентичности.
type Book struct {
	storage Storage
	logger  *zap.Logger

	mu        sync.Mutex
	namespace string
	list      []string
	def       string
	current   string
}

// New создаёт пустую адресную книгу.
func New(storage Storage, logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{storage: storage, logger: logger, list: []string{}}
}

// Load перечитывает адреса и адрес по умолчанию из пространства имён. Текущий адрес доставки
// устанавливается в адрес по умолчанию.
func (b *Book) Load(ctx context.Context, namespace string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list, err := b.storage.Addresses(ctx, namespace)
	if err != nil {
		return fmt.Errorf("load addresses: %w", err)
	}
	def, err := b.storage.DefaultAddress(ctx, namespace)
	if err != nil {
		return fmt.Errorf("load default address: %w", err)
	}
	if list == nil {
		list = []string{}
	}

	b.namespace = namespace
	b.list = list
	b.def = def
	b.current = def
	return nil
}

// Add добавляет адрес. Повторное добавление не меняет хранилище, но делает адрес текущим.
// Первый адрес становится адресом по умолчанию.
func (b *Book) Add(ctx context.Context, namespace, text string) (string, error) {
	addr, err := validation.Address(text)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkNamespace(namespace); err != nil {
		return "", err
	}

	if slices.Contains(b.list, addr) {
		b.current = addr
		return addr, nil
	}

	first := len(b.list) == 0
	next := append(slices.Clone(b.list), addr)
	if err := b.storage.SaveAddresses(ctx, namespace, next); err != nil {
		return "", fmt.Errorf("save addresses: %w", err)
	}
	b.list = next

	if first {
		if err := b.storage.SaveDefaultAddress(ctx, namespace, addr); err != nil {
			return "", fmt.Errorf("save default address: %w", err)
		}
		b.def = addr
	}
	b.current = addr
	return addr, nil
}

// Remove удаляет адрес. Удалённый адрес по умолчанию сбрасывается без замены. Если удалён
// текущий адрес, текущим становится первый оставшийся или пустая строка.
func (b *Book) Remove(ctx context.Context, namespace, text string) error {
	addr := validation.NormalizeAddress(text)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkNamespace(namespace); err != nil {
		return err
	}

	idx := slices.Index(b.list, addr)
	if idx < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(b.list), idx, idx+1)
	if err := b.storage.SaveAddresses(ctx, namespace, next); err != nil {
		return fmt.Errorf("save addresses: %w", err)
	}
	b.list = next

	if b.def == addr {
		if err := b.storage.SaveDefaultAddress(ctx, namespace, ""); err != nil {
			return fmt.Errorf("clear default address: %w", err)
		}
		b.def = ""
	}
	if b.current == addr {
		b.current = ""
		if len(b.list) > 0 {
			b.current = b.list[0]
		}
	}
	return nil
}

// SetDefault перезаписывает адрес по умолчанию и делает его текущим. Адрес, которого нет
// в книге, предварительно добавляется.
func (b *Book) SetDefault(ctx context.Context, namespace, text string) (string, error) {
	addr, err := validation.Address(text)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkNamespace(namespace); err != nil {
		return "", err
	}

	if !slices.Contains(b.list, addr) {
		next := append(slices.Clone(b.list), addr)
		if err := b.storage.SaveAddresses(ctx, namespace, next); err != nil {
			return "", fmt.Errorf("save addresses: %w", err)
		}
		b.list = next
	}
	if err := b.storage.SaveDefaultAddress(ctx, namespace, addr); err != nil {
		return "", fmt.Errorf("save default address: %w", err)
	}
	b.def = addr
	b.current = addr
	return addr, nil
}

// Select задаёт текущий адрес доставки без изменения хранилища.
func (b *Book) Select(text string) string {
	addr := validation.NormalizeAddress(text)

	b.mu.Lock()
	b.current = addr
	b.mu.Unlock()
	return addr
}

// ClearCurrent сбрасывает текущий адрес доставки.
func (b *Book) ClearCurrent() {
	b.mu.Lock()
	b.current = ""
	b.mu.Unlock()
}

// Current возвращает текущий адрес доставки.
func (b *Book) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// View возвращает копию состояния книги.
func (b *Book) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return View{
		Namespace: b.namespace,
		Addresses: slices.Clone(b.list),
		Default:   b.def,
		Current:   b.current,
	}
}

func (b *Book) checkNamespace(namespace string) error {
	if namespace != b.namespace {
		b.logger.Warn("address book operation for inactive namespace",
			zap.String("namespace", namespace),
			zap.String("active", b.namespace),
		)
		return fmt.Errorf("%w: %s", ErrNamespaceChanged, namespace)
	}
	return nil
}
