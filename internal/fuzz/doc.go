// Package fuzztests houses Go fuzz harnesses for the text processing core
// (normalizer, IL string escapes). Its goal is to smoke test robustness and
// to check properties that must hold for any input.
//
// Назначение: гонять произвольные байты через нормализатор целиком и
// по частям и сравнивать результат.
//
// Не делает: запись файлов, выполнение CLI.
//
// Зависимости: internal/normalize, internal/ilstr.

package fuzztests
