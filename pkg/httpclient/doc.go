// Package httpclient はHiringBull APIを呼び出すHTTPクライアントを提供する。
//
// スクレイパー等のサーバー間連携クライアントはAPIキーを、
// ユーザー向けクライアントはBearerトークンを付与して使用する。
// 2xx以外のレスポンスは *StatusError として返す。
package httpclient
