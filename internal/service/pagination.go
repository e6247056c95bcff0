package service

import "strconv"

// PageSize はルーム一覧の1ページあたりの件数です
const PageSize = 3

// Page はページ分割された一覧の1ページ分です
type Page[T any] struct {
	Items    []T
	Number   int   // 1始まりのページ番号
	NumPages int   // 総ページ数（0件でも1）
	Count    int64 // 全件数
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p Page[T]) PreviousNumber() int {
	return p.Number - 1
}
func (p Page[T]) NextNumber() int {
	return p.Number + 1
}

// Offset はリポジトリに渡す読み飛ばし件数です
func (p Page[T]) Offset() int {
	return (p.Number - 1) * PageSize
}

// resolvePage はクエリ文字列のページ番号を実在するページに丸めます
// 整数でなければ1ページ目、範囲外なら最終ページになります
func resolvePage[T any](raw string, count int64) Page[T] {
	numPages := 1
	if count > 0 {
		numPages = int((count + PageSize - 1) / PageSize)
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		n = 1
	case n < 1 || n > numPages:
		n = numPages
	}
	return Page[T]{Number: n, NumPages: numPages, Count: count}
}
