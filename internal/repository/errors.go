package repository

import "errors"

var ErrNotFound = errors.New("not found")

// 条件付き更新で0件（並行して別の更新が先に入った）
var ErrConflict = errors.New("conflict")
