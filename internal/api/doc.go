// Package api はHiringBull APIサーバーを実装する。
//
// 企業・求人・SNS投稿のCRUDと、有料プランのエンタイトルメント管理を提供する。
// すべてのルートはルートポリシー表に登録されたチェック（APIキー・認証・支払い）を
// 認可ゲートで評価してからハンドラーに到達する。ポリシーが未登録のルートは
// 起動時エラーとし、公開ルートも明示的に空のポリシーとして登録する。
//
// 主なエンドポイント:
//   - GET  /api/v1/jobs                  : 求人一覧（認証＋有効なプランが必要）
//   - POST /api/v1/jobs/bulk             : 求人の一括登録（APIキーが必要）
//   - PUT  /api/v1/entitlements/:user_id : プランの付与（決済Webhook、APIキーが必要）
//   - GET  /api/v1/me/subscription       : 自分のプラン状態（認証が必要）
package api
