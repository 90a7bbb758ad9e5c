package model

const guestNamespace = "guest"

// Identity определяет владельца активной сессии: гость или авторизованный пользователь.
type Identity struct {
	userID string
}

// Guest возвращает гостевую идентичность.
func Guest() Identity {
	return Identity{}
}

// Authenticated возвращает идентичность авторизованного пользователя.
func Authenticated(userID string) Identity {
	return Identity{userID: userID}
}

// IsGuest сообщает, является ли сессия гостевой.
func (i Identity) IsGuest() bool {
	return i.userID == ""
}

// UserID возвращает идентификатор пользователя или пустую строку для гостя.
func (i Identity) UserID() string {
	return i.userID
}

// Namespace возвращает пространство имён локального хранилища для этой идентичности.
func (i Identity) Namespace() string {
	if i.IsGuest() {
		return guestNamespace
	}
	return "user:" + i.userID
}

func (i Identity) String() string {
	return i.Namespace()
}
